package main

import (
	"context"
	"fmt"

	"github.com/dailyq/dailyq/core/admin"
)

// addUser creates an admin, or updates the password of an existing one.
func (cli *commandLine) addUser(uname, pwd string) error {
	adm, err := cli.adminSvc.CreateOrUpdate(context.Background(), admin.NewPassword{Username: uname, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "admin %q saved\n", adm.Username)
	return nil
}
