package main

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// generatePINs prints the new PINs; they are the only copy the admin gets to hand out.
func (cli *commandLine) generatePINs(target string) error {
	assignments, err := cli.studentSvc.GeneratePINs(context.Background(), target)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		fmt.Fprintln(cli.out, "no student needs a PIN")
		return nil
	}

	tw := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GRADE\tCLASS\tNUMBER\tNAME\tPIN")
	for _, a := range assignments {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", a.Grade, a.ClassNum, a.StudentNum, a.Name, a.PIN)
	}
	if err = tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "generated %d PIN(s)\n", len(assignments))
	return nil
}
