// Copyright (c) 2025 Jordan Hartwell

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package cmd

import (
	"fmt"

	goversion "github.com/caarlos0/go-version"
	"github.com/spf13/cobra"
)

// Populated at build time via -ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the build version, commit, and date.
`,
	Run: func(_ *cobra.Command, _ []string) {
		info := goversion.GetVersionInfo(
			goversion.WithAppDetails(
				"rsvpd",
				"Wedding RSVP security and notification service.",
				"https://github.com/hartwell/rsvpd",
			),
			func(i *goversion.Info) {
				if version != "" {
					i.GitVersion = version
				}
				if commit != "" {
					i.GitCommit = commit
				}
				if date != "" {
					i.BuildDate = date
				}
			},
		)

		fmt.Println()
		printKV("Version", info.GitVersion, "Commit", info.GitCommit)
		printKV("Built", info.BuildDate, "Go", info.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
