package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"pa-agent/internal/application/port/input"
	"pa-agent/internal/domain/entity"
	"pa-agent/internal/infrastructure/userinteraction"
	"pa-agent/internal/usecase/formfill"

	"github.com/spf13/cobra"
)

var (
	submitAccount string
	submitData    string
)

var errRunFailed = errors.New("run did not complete")

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Fill and submit one PA form in the foreground",
	Long: `Fetch case data for an account, merge optional overrides and run the
form filling agent until it finishes. Overrides are read from a JSON file
whose top-level keys replace those fetched from the CRM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := input.SubmitRequest{AccountID: submitAccount}
		if submitData != "" {
			data, err := readCaseRecord(submitData)
			if err != nil {
				return err
			}
			req.CustomData = data
		}

		ctx, stop := signalContext()
		defer stop()

		accepted, err := container.FormFill.Submit(ctx, req)
		if err != nil {
			return err
		}

		progress := userinteraction.NewConsoleWriter(cmd.OutOrStdout())
		account := submitAccount
		if account == "" {
			account = "default"
		}
		progress.ShowStarted("form", accepted.RequestID, "account: "+account)

		done := make(chan struct{})
		go func() {
			container.FormFill.Wait()
			close(done)
		}()
		go func() {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := timeoutContext()
				defer cancel()
				_ = container.FormFill.Shutdown(shutdownCtx)
			case <-done:
			}
		}()

		if !follow(progress, accepted.RequestID, done, formfill.LogCompleted) {
			return errRunFailed
		}
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitAccount, "account", "", "CRM account id (default TARGET_ACCOUNT_ID)")
	submitCmd.Flags().StringVar(&submitData, "data", "", "JSON file with case data overrides")
}

func readCaseRecord(path string) (entity.CaseRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	var rec entity.CaseRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	return rec, nil
}
