package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "stream-master",
		Short: "Stream Master CLI - HLS to MP4 download manager",
		Long:  `A command-line interface for downloading HLS streams and converting them to MP4.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resolveCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var addCmd = &cobra.Command{
	Use:   "add [filename]",
	Short: "Add a download",
	Long:  `Add a download by manifest URL (--url) or by asset reference (--asset), saved under the given filename.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		manifestURL, _ := cmd.Flags().GetString("url")
		assetID, _ := cmd.Flags().GetString("asset")
		episodeID, _ := cmd.Flags().GetString("episode")

		if manifestURL == "" && assetID == "" {
			fmt.Fprintln(os.Stderr, "Error: either --url or --asset is required")
			os.Exit(1)
		}

		payload := map[string]string{
			"filename": args[0],
		}
		if manifestURL != "" {
			payload["manifest_url"] = manifestURL
		}
		if assetID != "" {
			payload["asset_id"] = assetID
		}
		if episodeID != "" {
			payload["episode_id"] = episodeID
		}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(serverURL+"/api/v1/downloads", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusCreated {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result map[string]interface{}
		json.Unmarshal(body, &result)
		fmt.Printf("Download added successfully!\n")
		fmt.Printf("ID: %s\n", result["id"])
		fmt.Printf("Status: %s\n", result["status"])
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all downloads",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")

		url := serverURL + "/api/v1/downloads"
		if status != "" {
			url += "?status=" + status
		}

		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var downloads []map[string]interface{}
		json.Unmarshal(body, &downloads)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILENAME\tSTATUS\tPROGRESS\tCREATED")
		for _, d := range downloads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v%%\t%s\n",
				truncate(stringField(d, "id"), 8),
				truncate(stringField(d, "filename"), 40),
				d["status"],
				d["progress"],
				d["created_at"])
		}
		w.Flush()
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get download details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Get(serverURL + "/api/v1/downloads/" + id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var download map[string]interface{}
		json.Unmarshal(body, &download)

		fmt.Printf("Download Details:\n")
		fmt.Printf("  ID:       %s\n", download["id"])
		fmt.Printf("  Filename: %s\n", download["filename"])
		fmt.Printf("  Manifest: %s\n", download["manifest_url"])
		fmt.Printf("  Status:   %s\n", download["status"])
		fmt.Printf("  Progress: %v%%\n", download["progress"])
		fmt.Printf("  Created:  %s\n", download["created_at"])
		if download["file_path"] != nil && download["file_path"] != "" {
			fmt.Printf("  File:     %s\n", download["file_path"])
		}
		if download["error_message"] != nil && download["error_message"] != "" {
			fmt.Printf("  Error:    %s\n", download["error_message"])
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel an in-flight download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Post(serverURL+"/api/v1/downloads/"+id+"/cancel", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}
		fmt.Println("Download cancelled successfully")
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a finished download from the list",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		req, _ := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/downloads/"+id, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}
		fmt.Println("Download removed")
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear completed downloads from the list",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Post(serverURL+"/api/v1/downloads/clear-completed", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result map[string]interface{}
		json.Unmarshal(body, &result)
		fmt.Printf("Removed %v completed download(s)\n", result["removed"])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently finished downloads",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		limit, _ := cmd.Flags().GetString("limit")

		url := serverURL + "/api/v1/downloads/history"
		if limit != "" {
			url += "?limit=" + limit
		}

		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var records []map[string]interface{}
		json.Unmarshal(body, &records)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILENAME\tSTATUS\tBYTES\tFINISHED")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n",
				truncate(stringField(r, "id"), 8),
				truncate(stringField(r, "filename"), 40),
				r["status"],
				r["output_bytes"],
				r["finished_at"])
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/downloads/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var stats map[string]interface{}
		json.Unmarshal(body, &stats)

		fmt.Println("Download Statistics:")
		fmt.Printf("  Total:       %v\n", stats["total"])
		fmt.Printf("  Completed:   %v\n", stats["completed"])
		fmt.Printf("  Failed:      %v\n", stats["failed"])
		fmt.Printf("  Total bytes: %v\n", stats["total_bytes"])
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [asset-id]",
	Short: "Resolve an asset reference to its HLS manifest URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		data, _ := json.Marshal(map[string]string{"asset_id": args[0]})
		resp, err := http.Post(serverURL+"/api/v1/streams/resolve", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var source map[string]interface{}
		json.Unmarshal(body, &source)
		fmt.Printf("Manifest: %s\n", source["url"])
		if source["description"] != nil && source["description"] != "" {
			fmt.Printf("Title:    %s\n", source["description"])
		}
	},
}

func init() {
	addCmd.Flags().StringP("url", "u", "", "HLS manifest URL")
	addCmd.Flags().StringP("asset", "a", "", "Asset reference id (resolved server-side)")
	addCmd.Flags().StringP("episode", "e", "", "Episode id for bookkeeping")
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	historyCmd.Flags().StringP("limit", "n", "", "Maximum number of records")
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
