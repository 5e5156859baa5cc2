package main

import (
	"context"
	"fmt"

	"github.com/trezcool/ratiba/core/user"
)

func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Printf("created %s %q\n", usr.Role, usr.Username)
	return nil
}
