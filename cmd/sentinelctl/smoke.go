package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// newSmokeCmd exercises a running server end to end: a disaster post is
// created once and then recognized as a duplicate, and a mundane post is
// rejected as not disaster-related.
func newSmokeCmd(opts *globalOptions) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run an end-to-end check against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			time.Sleep(wait)

			author := fmt.Sprintf("smoke-%d", time.Now().Unix())
			flood := map[string]any{
				"text":   "Flood warning in downtown area, roads blocked",
				"author": author,
				"source": "smoke",
			}

			fmt.Fprintln(out, "1. Submitting disaster post...")
			resp, err := sendRequest(opts.serverURL, http.MethodPost, "/v1/posts", flood)
			if err != nil {
				return err
			}
			if resp.Status != http.StatusCreated && resp.Status != http.StatusOK {
				return fmt.Errorf("FAILED: submit returned %d: %v", resp.Status, resp.Body)
			}
			fmt.Fprintf(out, "PASSED: submit (%v)\n", resp.Body["status"])

			fmt.Fprintln(out, "2. Resubmitting the same post...")
			resp, err = sendRequest(opts.serverURL, http.MethodPost, "/v1/posts", flood)
			if err != nil {
				return err
			}
			if resp.Status != http.StatusOK || resp.Body["status"] != "duplicate" {
				return fmt.Errorf("FAILED: expected duplicate, got %d: %v", resp.Status, resp.Body)
			}
			fmt.Fprintln(out, "PASSED: duplicate detected")

			fmt.Fprintln(out, "3. Submitting mundane post...")
			resp, err = sendRequest(opts.serverURL, http.MethodPost, "/v1/posts", map[string]any{
				"text":   "Just had the best croissant at the new bakery downtown",
				"author": author,
			})
			if err != nil {
				return err
			}
			if resp.Status != http.StatusOK || resp.Body["status"] != "not_disaster" {
				return fmt.Errorf("FAILED: expected not_disaster, got %d: %v", resp.Status, resp.Body)
			}
			fmt.Fprintln(out, "PASSED: not disaster-related")

			fmt.Fprintln(out, "4. Rejecting invalid post...")
			resp, err = sendRequest(opts.serverURL, http.MethodPost, "/v1/posts", map[string]any{"text": ""})
			if err != nil {
				return err
			}
			if resp.Status != http.StatusBadRequest {
				return fmt.Errorf("FAILED: expected 400, got %d", resp.Status)
			}
			fmt.Fprintln(out, "PASSED: validation")
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "delay before the first request, for servers still starting")
	return cmd
}
