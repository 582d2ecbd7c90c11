// Package ui provides colored console output for the ChatGPT UDF host.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// PrintBanner displays the startup banner.
func PrintBanner(version string) {
	fmt.Println()

	cyan := color.New(color.FgCyan, color.Bold)
	hiCyan := color.New(color.FgHiCyan)
	magenta := color.New(color.FgMagenta, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	white := color.New(color.FgWhite)
	dim := color.New(color.FgHiBlack)

	art := [][2]string{
		{" ██████╗██╗  ██╗ █████╗ ████████╗", " ██████╗ ██████╗ ████████╗"},
		{"██╔════╝██║  ██║██╔══██╗╚══██╔══╝", "██╔════╝ ██╔══██╗╚══██╔══╝"},
		{"██║     ███████║███████║   ██║   ", "██║  ███╗██████╔╝   ██║   "},
		{"██║     ██╔══██║██╔══██║   ██║   ", "██║   ██║██╔═══╝    ██║   "},
		{"╚██████╗██║  ██║██║  ██║   ██║   ", "╚██████╔╝██║        ██║   "},
		{" ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ", " ╚═════╝ ╚═╝        ╚═╝   "},
	}

	cyan.Println("╔════════════════════════════════════════════════════════════════╗")
	for _, line := range art {
		cyan.Print("║  ")
		hiCyan.Print(line[0])
		magenta.Print(line[1])
		cyan.Println("   ║")
	}
	cyan.Println("╠════════════════════════════════════════════════════════════════╣")

	cyan.Print("║  ")
	yellow.Print("CHAT-COMPLETION UDF")
	dim.Print("  │  ")
	white.Printf("%-10s", version)
	dim.Print("                             ")
	cyan.Println("║")

	cyan.Println("╚════════════════════════════════════════════════════════════════╝")

	fmt.Println()
}
