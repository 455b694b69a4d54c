package main

import (
	"context"
	"fmt"

	"github.com/dailyq/dailyq/core/admin"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	adm, err := cli.adminSvc.ResetPassword(context.Background(), admin.NewPassword{Username: uname, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %q reset\n", adm.Username)
	return nil
}
