package cli

import (
	"context"
	"fmt"
	"log"
	"sort"
)

func (a *App) Certificates(ctx context.Context) error {

	status, err := a.api.CertificateStatus(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		st := status[name]
		state := "MISSING"
		if st.Exists {
			state = fmt.Sprintf("ok, %d bytes", st.Size)
		}
		fmt.Printf("%-14s %s\n", name, state)
	}
	return nil
}
