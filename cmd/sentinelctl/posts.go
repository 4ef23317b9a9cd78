package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthands/sentinel/internal/model"
)

type postFlags struct {
	text     string
	author   string
	source   string
	url      string
	location string
	lat      float64
	lon      float64
	priority string
}

func (f *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.text, "text", "", "post text (required)")
	cmd.Flags().StringVar(&f.author, "author", "", "post author")
	cmd.Flags().StringVar(&f.source, "source", "", "platform the post came from")
	cmd.Flags().StringVar(&f.url, "url", "", "link to the original post")
	cmd.Flags().StringVar(&f.location, "location", "", "free-text location name")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude")
	_ = cmd.MarkFlagRequired("text")
}

func (f *postFlags) payload(cmd *cobra.Command) map[string]any {
	p := map[string]any{"text": f.text}
	if f.author != "" {
		p["author"] = f.author
	}
	if f.source != "" {
		p["source"] = f.source
	}
	if f.url != "" {
		p["url"] = f.url
	}
	if f.priority != "" {
		p["priority"] = f.priority
	}

	loc := model.Location{Name: f.location}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		loc.Lat, loc.Lon = &f.lat, &f.lon
	}
	if loc.Name != "" || loc.HasCoordinates() {
		p["location"] = loc
	}
	return p
}

func newSubmitCmd(opts *globalOptions) *cobra.Command {
	f := &postFlags{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Run one post through the pipeline synchronously",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(cmd.OutOrStdout(), opts.serverURL, http.MethodPost, "/v1/posts", f.payload(cmd))
		},
	}
	f.register(cmd)
	return cmd
}

func newEnqueueCmd(opts *globalOptions) *cobra.Command {
	f := &postFlags{}
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a post for the worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(cmd.OutOrStdout(), opts.serverURL, http.MethodPost, "/v1/queue", f.payload(cmd))
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.priority, "priority", "", `"high" routes to the high priority queue`)
	return cmd
}

func newEventCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "event <id>",
		Short: "Show a persisted event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResponse(cmd.OutOrStdout(), opts.serverURL, http.MethodGet, "/v1/events/"+args[0], nil)
		},
	}
}

// apiResponse is the decoded body of a JSON API call.
type apiResponse struct {
	Status int
	Body   map[string]any
}

var httpClient = &http.Client{Timeout: 60 * time.Second}

func sendRequest(baseURL, method, endpoint string, payload any) (apiResponse, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return apiResponse{}, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		return apiResponse{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	out := apiResponse{Status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Body); err != nil {
			return out, fmt.Errorf("unexpected response body %q: %w", raw, err)
		}
	}
	return out, nil
}

func printResponse(w io.Writer, baseURL, method, endpoint string, payload any) error {
	resp, err := sendRequest(baseURL, method, endpoint, payload)
	if err != nil {
		return err
	}
	pretty, _ := json.MarshalIndent(resp.Body, "", "  ")
	fmt.Fprintf(w, "HTTP %d\n%s\n", resp.Status, pretty)
	if resp.Status >= 400 {
		return fmt.Errorf("request failed with status %d", resp.Status)
	}
	return nil
}
