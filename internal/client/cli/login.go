package cli

import (
	"context"
	"log"
	"os"

	"github.com/Naimehossein77/gym-nfc/internal/common"
)

func (a *App) Login(ctx context.Context) error {

	userName, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	a.userName = userName
	log.Printf("Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.api.Logout()
	a.userName = ""
	log.Printf("Logged out")
	return nil
}
