package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/ratiba/core/user"
)

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{coll: db.db.Collection(usersCollection)}
}

func (repo *userRepository) getUser(ctx context.Context, filter bson.M) (user.User, error) {
	var usr user.User
	if err := repo.coll.FindOne(ctx, filter).Decode(&usr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return usr, nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if _, err := repo.coll.InsertOne(ctx, usr); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "username", Value: 1}})
	cursor, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding users")
	}
	users := make([]user.User, 0)
	if err = cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, bson.M{"_id": id})
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, bson.M{"username": username})
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": usr.ID}, usr)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "replacing user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
