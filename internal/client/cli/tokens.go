package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) Generate(ctx context.Context) error {

	memberID, ok, err := GetInt(a.reader, "Enter member id", os.Stdout)
	if err != nil || !ok {
		log.Printf("member id is required")
		return err
	}

	var ttlDays *int
	days, ok, err := GetInt(a.reader, "Enter validity in days (empty for no expiry)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if ok {
		d := int(days)
		ttlDays = &d
	}

	token, err := a.api.GenerateToken(ctx, memberID, ttlDays)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	fmt.Printf("Token: %s\n", token.Token)
	if token.ExpiresAt != nil {
		fmt.Printf("Expires: %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Expires: never")
	}
	if token.EncryptedPayload != "" {
		fmt.Printf("Encrypted payload: %s\n", token.EncryptedPayload)
	}
	return nil
}

func (a *App) Validate(ctx context.Context) error {

	token, err := GetSimpleText(a.reader, "Enter token", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	result, err := a.api.ValidateToken(ctx, token)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	if !result.Valid {
		fmt.Println("Token is NOT valid")
		return nil
	}
	fmt.Printf("Token is valid, member %d\n", result.Token.MemberID)
	return nil
}

func (a *App) List(ctx context.Context) error {

	memberID, ok, err := GetInt(a.reader, "Enter member id", os.Stdout)
	if err != nil || !ok {
		log.Printf("member id is required")
		return err
	}

	tokens, err := a.api.ListTokens(ctx, memberID)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	if len(tokens) == 0 {
		fmt.Println("No active tokens")
		return nil
	}
	for _, t := range tokens {
		expires := "never"
		if t.ExpiresAt != nil {
			expires = t.ExpiresAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%s  expires: %s\n", t.Token, expires)
	}
	return nil
}

func (a *App) Revoke(ctx context.Context) error {

	token, err := GetSimpleText(a.reader, "Enter token to revoke", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	revoked, err := a.api.RevokeToken(ctx, token)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	if revoked {
		fmt.Println("Token revoked")
	} else {
		fmt.Println("Token was not active")
	}
	return nil
}

func (a *App) Cleanup(ctx context.Context) error {

	count, err := a.api.CleanupTokens(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	fmt.Printf("Deactivated %d expired tokens\n", count)
	return nil
}
