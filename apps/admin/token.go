package main

import (
	"fmt"

	echoapi "github.com/sekolahku/sps/apps/api/echo"
	"github.com/sekolahku/sps/core"
)

func (cli *commandLine) adminToken(email string) error {
	email = core.CleanString(email, true)
	token, err := echoapi.GenerateToken(echoapi.GetAdminClaims(email, cli.conf), cli.conf)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func (cli *commandLine) parentToken(studentID string) error {
	stu, err := cli.studentRepo.GetStudentByID(core.CleanString(studentID))
	if err != nil {
		return err
	}
	token, err := echoapi.GenerateToken(echoapi.GetStudentClaims(stu, cli.conf), cli.conf)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
