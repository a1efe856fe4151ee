package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) WriteCard(ctx context.Context) error {

	token, err := GetSimpleText(a.reader, "Enter token to write", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	memberID, ok, err := GetInt(a.reader, "Enter member id", os.Stdout)
	if err != nil || !ok {
		log.Printf("member id is required")
		return err
	}

	fmt.Println("Place the card on the reader...")

	result, err := a.api.WriteCard(ctx, token, memberID, 30)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	fmt.Println(result.Message)
	if result.Success {
		fmt.Printf("Card: %s\n", result.CardID)
	}
	return nil
}

func (a *App) ReaderStatus(ctx context.Context) error {

	status, err := a.api.ReaderStatus(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	fmt.Printf("Reader: %s\n", status.ReaderType)
	fmt.Printf("Connected: %v\n", status.Connected)
	fmt.Printf("Timeout: %ds\n", status.Timeout)
	return nil
}
