// Package main provides the slideshow control CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/urlshow/internal/api/connect"
)

var (
	app    = kingpin.New("urlshow-cli", "URL slideshow control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Control token (or set URLSHOW_CONTROL_TOKEN env)").Envar("URLSHOW_CONTROL_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Show the slideshow status")

	// playback commands
	startCmd    = app.Command("start", "Start playback")
	stopCmd     = app.Command("stop", "Stop playback")
	toggleCmd   = app.Command("toggle", "Start or stop playback")
	resumeCmd   = app.Command("resume", "Resume playback paused by activity")
	activityCmd = app.Command("activity", "Report pointer activity")
	showCmd     = app.Command("show", "Display the URL at a position")
	showPos     = showCmd.Arg("position", "1-based position").Required().Int32()

	// fullscreen commands
	fullscreenCmd       = app.Command("fullscreen", "Fullscreen mode")
	fullscreenEnterCmd  = fullscreenCmd.Command("enter", "Enter fullscreen").Default()
	fullscreenExitCmd   = fullscreenCmd.Command("exit", "Exit fullscreen")
	fullscreenToggleCmd = fullscreenCmd.Command("toggle", "Toggle fullscreen")
	escapeCmd           = app.Command("escape", "Exit fullscreen if active")

	// playlist commands
	addCmd     = app.Command("add", "Add URLs (arguments, or stdin when none)")
	addURLs    = addCmd.Arg("url", "URLs to add").Strings()
	removeCmd  = app.Command("remove", "Remove the URL at a position")
	removePos  = removeCmd.Arg("position", "1-based position").Required().Int()
	removeYes  = removeCmd.Flag("yes", "Confirm removal").Short('y').Bool()
	moveCmd    = app.Command("move", "Move the URL at a position up or down")
	movePos    = moveCmd.Arg("position", "1-based position").Required().Int()
	moveDir    = moveCmd.Arg("direction", "up or down").Required().Enum("up", "down")
	displayCmd = app.Command("display-time", "Set the display time in seconds")
	displaySec = displayCmd.Arg("seconds", "Display time").Required().String()
	loopCmd    = app.Command("loop", "Set looping")
	loopValue  = loopCmd.Arg("value", "on or off").Required().Enum("on", "off")

	// share / export / import commands
	shareCmd   = app.Command("share", "Print the share link")
	shareCopy  = shareCmd.Flag("copy", "Copy the link to the clipboard").Short('c').Bool()
	exportCmd  = app.Command("export", "Export settings to a JSON file")
	exportOut  = exportCmd.Flag("output", "Output path (default: suggested file name, - for stdout)").Short('o').String()
	importCmd  = app.Command("import", "Import settings from a JSON file")
	importFile = importCmd.Arg("file", "Exported settings file").Required().ExistingFile()
	clearCmd   = app.Command("clear", "Clear all settings")
	clearYes   = clearCmd.Flag("yes", "Confirm clearing").Short('y').Bool()

	// watch command
	watchCmd = app.Command("watch", "Stream status changes and messages")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewClient(http.DefaultClient, *server, *token)
	ctx := context.Background()

	// Execute command
	switch command {
	case statusCmd.FullCommand():
		printStatus(must(client.GetStatus(ctx)))
	case startCmd.FullCommand():
		report(must(client.Start(ctx)), "Playback started")
	case stopCmd.FullCommand():
		report(must(client.Stop(ctx)), "Playback stopped")
	case toggleCmd.FullCommand():
		r := must(client.TogglePlayback(ctx))
		report(r, "Playback "+stateOf(r))
	case resumeCmd.FullCommand():
		report(must(client.Resume(ctx)), "Playback resumed")
	case activityCmd.FullCommand():
		r := must(client.Activity(ctx))
		report(r, "Activity reported, playback "+stateOf(r))
	case showCmd.FullCommand():
		r := must(client.ShowAt(ctx, *showPos-1))
		report(r, fmt.Sprintf("Showing %v", r.Status["currentUrl"]))
	case fullscreenEnterCmd.FullCommand():
		report(must(client.EnterFullscreen(ctx)), "Entered fullscreen")
	case fullscreenExitCmd.FullCommand():
		report(must(client.ExitFullscreen(ctx)), "Exited fullscreen")
	case fullscreenToggleCmd.FullCommand():
		r := must(client.ToggleFullscreen(ctx))
		report(r, fmt.Sprintf("Fullscreen: %v", r.Status["fullscreen"]))
	case escapeCmd.FullCommand():
		r := must(client.Escape(ctx))
		if handled, _ := r.Fields["handled"].(bool); !handled {
			fmt.Println("Not in fullscreen")
			return
		}
		report(r, "Exited fullscreen")
	case addCmd.FullCommand():
		add(ctx, client)
	case removeCmd.FullCommand():
		r := must(client.RemoveURL(ctx, *removePos-1, *removeYes))
		if r.Code == "not_confirmed" {
			fmt.Println("Removal requires confirmation: rerun with --yes")
			os.Exit(1)
		}
		if removed, _ := r.Fields["removed"].(bool); !removed {
			fmt.Printf("No URL at position %d\n", *removePos)
			os.Exit(1)
		}
		report(r, fmt.Sprintf("Removed position %d", *removePos))
	case moveCmd.FullCommand():
		direction := 1
		if *moveDir == "up" {
			direction = -1
		}
		r := must(client.MoveURL(ctx, *movePos-1, direction))
		if moved, _ := r.Fields["moved"].(bool); !moved {
			fmt.Println("Cannot move further")
			os.Exit(1)
		}
		report(r, fmt.Sprintf("Moved to position %v", toInt(r.Fields["index"])+1))
	case displayCmd.FullCommand():
		r := must(client.SetDisplayTime(ctx, *displaySec))
		report(r, fmt.Sprintf("Display time: %ds", toInt(r.Fields["displayTime"])))
	case loopCmd.FullCommand():
		report(must(client.SetLooping(ctx, *loopValue == "on")), "Looping: "+*loopValue)
	case shareCmd.FullCommand():
		share(ctx, client)
	case exportCmd.FullCommand():
		exportSettings(ctx, client)
	case importCmd.FullCommand():
		importSettings(ctx, client)
	case clearCmd.FullCommand():
		r := must(client.ClearSettings(ctx, *clearYes))
		if r.Code == "not_confirmed" {
			fmt.Println("Clearing requires confirmation: rerun with --yes")
			os.Exit(1)
		}
		report(r, "Settings cleared")
	case watchCmd.FullCommand():
		watch(ctx, client)
	}
}

func must(r *apiconnect.Result, err error) *apiconnect.Result {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return r
}

// report prints ok on success and the server message otherwise.
func report(r *apiconnect.Result, ok string) {
	if !r.Success {
		fmt.Printf("Failed [%s]: %s\n", r.Code, r.Message)
		os.Exit(1)
	}
	fmt.Println(ok)
}

func add(ctx context.Context, client *apiconnect.Client) {
	text := strings.Join(*addURLs, "\n")
	if len(*addURLs) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Printf("Error: failed to read stdin: %v\n", err)
			os.Exit(1)
		}
		text = string(data)
	}

	r := must(client.AddURLs(ctx, text))
	if rejected, ok := r.Fields["rejected"].([]any); ok {
		for _, item := range rejected {
			rej, _ := item.(map[string]any)
			fmt.Printf("Rejected [%v]: %v (%v)\n", rej["code"], rej["url"], rej["message"])
		}
	}
	report(r, fmt.Sprintf("Added %d URL(s), %d in total", toInt(r.Fields["added"]), toInt(r.Status["total"])))
}

func share(ctx context.Context, client *apiconnect.Client) {
	r := must(client.GetShareLink(ctx))
	if !r.Success {
		fmt.Println(r.Message)
		os.Exit(1)
	}

	link, _ := r.Fields["link"].(string)
	fmt.Println(link)
	if *shareCopy {
		if err := clipboard.WriteAll(link); err != nil {
			fmt.Printf("Failed to copy link: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Share link copied to clipboard!")
	}
}

func exportSettings(ctx context.Context, client *apiconnect.Client) {
	data, name, err := client.Export(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	path := *exportOut
	if path == "-" {
		fmt.Println(string(data))
		return
	}
	if path == "" {
		path = name
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Printf("Error: failed to write %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Exported to %s\n", filepath.Clean(path))
}

func importSettings(ctx context.Context, client *apiconnect.Client) {
	data, err := os.ReadFile(*importFile)
	if err != nil {
		fmt.Printf("Error: failed to read %s: %v\n", *importFile, err)
		os.Exit(1)
	}
	r := must(client.Import(ctx, data))
	report(r, r.Message)
}

func watch(ctx context.Context, client *apiconnect.Client) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Watching the slideshow. Press Ctrl+C to exit.")

	err := client.Subscribe(ctx, func(n map[string]any) bool {
		printNotification(n)
		return true
	})
	if err != nil && ctx.Err() == nil {
		fmt.Printf("Stream error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nUnsubscribing...")
}

func printNotification(n map[string]any) {
	switch n["kind"] {
	case apiconnect.KindInitialState:
		fmt.Println("\n=== INITIAL STATE ===")
	case "status":
		fmt.Printf("\n=== STATE CHANGED [%d] ===\n", toInt(n["sequenceNo"]))
	case "message":
		fmt.Printf("\n[%d] %v\n", toInt(n["sequenceNo"]), n["message"])
		return
	}
	if status, ok := n["status"].(map[string]any); ok {
		printStatusFields(status)
	}
}

func printStatus(r *apiconnect.Result) {
	fmt.Println("\n=== CURRENT SLIDESHOW STATUS ===")
	printStatusFields(r.Status)

	if info, ok := r.Fields["session"].(map[string]any); ok {
		fmt.Println("\nSession Info:")
		fmt.Printf("  Session ID: %v\n", info["sessionId"])
		fmt.Printf("  Phase: %v\n", info["phase"])
		if started, ok := info["startedAt"]; ok {
			fmt.Printf("  Started At: %v\n", started)
		}
		if saved, ok := info["lastSavedAt"]; ok {
			fmt.Printf("  Last Saved At: %v\n", saved)
		}
		fmt.Printf("  Save Failures: %d\n", toInt(info["saveFailures"]))
		fmt.Printf("  Subscribers: %d\n", toInt(info["subscribers"]))
	}
	fmt.Println()
}

func printStatusFields(s map[string]any) {
	fmt.Printf("State: %v\n", s["state"])
	fmt.Printf("Position: %d / %d\n", toInt(s["position"]), toInt(s["total"]))
	if current, _ := s["currentUrl"].(string); current != "" {
		fmt.Printf("Current URL: %s\n", current)
	}
	fmt.Printf("Display Time: %ds\n", toInt(s["displayTime"]))
	fmt.Printf("Looping: %v\n", s["isLooping"])
	fmt.Printf("Fullscreen: %v (controls visible: %v)\n", s["fullscreen"], s["controlsVisible"])

	urls, _ := s["urls"].([]any)
	if len(urls) == 0 {
		fmt.Println("\nNo URLs in the playlist")
		return
	}
	fmt.Println("\nPlaylist:")
	current := toInt(s["currentIndex"])
	for i, u := range urls {
		marker := " "
		if i == current {
			marker = ">"
		}
		fmt.Printf(" %s %2d. %v\n", marker, i+1, u)
	}
}

func stateOf(r *apiconnect.Result) string {
	state, _ := r.Status["state"].(string)
	return strings.ReplaceAll(state, "_", " ")
}

// toInt converts a number decoded from a Struct.
func toInt(v any) int {
	f, _ := v.(float64)
	return int(f)
}
