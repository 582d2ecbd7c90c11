package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

var (
	// Badge colors
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)
	debugBadge   = color.New(color.FgMagenta)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)

	moneyGreen = color.New(color.FgHiGreen, color.Bold)
	neonBlue   = color.New(color.FgHiCyan, color.Bold)

	methodPOST = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET  = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
)

// PrintInfo logs a general host message.
// Format: [UDF] message
func PrintInfo(msg string) {
	infoBadge.Print("[UDF]")
	fmt.Print(" ")
	fmt.Println(msg)
}

// PrintError writes a fatal host message to stderr, keeping stdout clean for
// CSV output.
func PrintError(msg string) {
	errorBadge.Fprint(os.Stderr, " ERROR ")
	fmt.Fprint(os.Stderr, " ")
	errorText.Fprintln(os.Stderr, msg)
}

// PrintRequest logs one HTTP request with its batch statistics.
func PrintRequest(method, path string, status int, latency time.Duration, rows, failed int) {
	mutedText.Printf("%s ", time.Now().Format("15:04:05"))

	printMethodBadge(method)
	fmt.Print(" ")

	fmt.Printf("%-30s ", truncatePath(path, 30))

	printStatusBadge(status)
	fmt.Print(" ")

	printLatency(latency)

	if rows > 0 {
		fmt.Print(" ")
		mutedText.Print("rows:")
		fmt.Print(rows)
		if failed > 0 {
			warningText.Printf(" failed:%d", failed)
		}
	}

	fmt.Println()
}

// PrintBatchSummary logs the outcome and estimated cost of one forward.
// Format: 💸 4 rows (1 failed) | 312 tokens | $0.0004 this batch | $0.0120 total
func PrintBatchSummary(rows, failed int, tokens int64, cost, total string) {
	moneyGreen.Print("💸 ")
	fmt.Printf("%d rows", rows)
	if failed > 0 {
		warningText.Printf(" (%d failed)", failed)
	}
	mutedText.Print(" | ")
	fmt.Printf("%d tokens", tokens)
	mutedText.Print(" | ")
	moneyGreen.Print(cost)
	fmt.Print(" this batch")
	mutedText.Print(" | ")
	moneyGreen.Print(total)
	fmt.Println(" total")
}

func printMethodBadge(method string) {
	switch method {
	case "POST":
		methodPOST.Printf(" %s ", method)
	case "GET":
		methodGET.Printf(" %s ", method)
	default:
		debugBadge.Printf(" %s ", method)
	}
}

func printStatusBadge(status int) {
	switch {
	case status >= 200 && status < 300:
		successBadge.Printf(" %d ", status)
	case status >= 300 && status < 400:
		infoBadge.Printf(" %d ", status)
	case status >= 400 && status < 500:
		warningBadge.Printf(" %d ", status)
	default:
		errorBadge.Printf(" %d ", status)
	}
}

// printLatency colors by wall time. Forwards routinely take seconds, so the
// thresholds are wider than for a plain proxy.
func printLatency(latency time.Duration) {
	latencyStr := fmt.Sprintf("%7s", latency.Round(time.Millisecond))

	switch {
	case latency < 2*time.Second:
		successText.Print(latencyStr)
	case latency < 20*time.Second:
		warningText.Print(latencyStr)
	default:
		errorText.Print(latencyStr)
	}
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return path[:maxLen-3] + "..."
}

// PrintStartupInfo prints the listen address, the configured setup and where
// the API key currently comes from.
func PrintStartupInfo(host string, port int, model string, temperature float64, credentialSource string) {
	fmt.Println()
	infoBadge.Print("[UDF]")
	fmt.Print(" Server starting on ")
	neonBlue.Printf("http://%s:%d\n", host, port)

	infoBadge.Print("[UDF]")
	fmt.Print(" Model: ")
	accentText.Print(model)
	fmt.Printf(" | Temperature: %g | Key: ", temperature)
	if credentialSource != "" {
		successText.Println(credentialSource)
	} else {
		errorText.Println("not configured")
	}

	fmt.Println()
	printEndpoints()
}

func printEndpoints() {
	endpoints := []struct {
		method, path, desc string
	}{
		{"POST", "/v1/udfs/chatgpt/forward", "Forward a batch"},
		{"GET", "/v1/udfs", "UDF descriptors"},
		{"GET", "/v1/models", "Supported models"},
		{"GET", "/health", "Health check"},
	}

	mutedText.Println("  ┌──────────────────────────────────────────────────────────┐")
	for _, e := range endpoints {
		mutedText.Print("  │ ")
		printMethodBadge(e.method)
		fmt.Printf("%*s %-26s", 4-len(e.method), "", e.path)
		mutedText.Printf("%-20s", e.desc)
		mutedText.Println(" │")
	}
	mutedText.Println("  └──────────────────────────────────────────────────────────┘")
	fmt.Println()
}

// PrintShutdown prints a styled shutdown message.
func PrintShutdown() {
	fmt.Println()
	warningBadge.Print("[SHUTDOWN]")
	warningText.Println(" Graceful shutdown initiated...")
}

// PrintGoodbye prints a styled goodbye message.
func PrintGoodbye() {
	successBadge.Print(" OK ")
	fmt.Print(" ")
	successText.Println("Server stopped. Goodbye! 👋")
}
