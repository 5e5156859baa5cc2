package main

import "github.com/trezcool/ratiba/storage/database"

var gooseRunFunc = func(repos *database.Repositories, command string, args ...string) error { // mockable
	return repos.Migrate(command, args...)
}

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(cli.repos, args[0], args[1:]...)
}
