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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hartwell/rsvpd/internal/authtoken"
	"github.com/hartwell/rsvpd/internal/cli"
)

// tokenGenerateCmd represents the tokenGenerate command.
var tokenGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a token pair",
	Long: `Generate a signed access/refresh token pair for a subject.
Useful for testing and for bootstrapping admin sessions outside the
login flow.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		subject, _ := cmd.Flags().GetString("subject")
		role, _ := cmd.Flags().GetString("role")
		groupID, _ := cmd.Flags().GetString("group")

		tm := buildTokenService(logger)
		pair, err := tm.Issue(subject, role, appConfig.Event.ID, groupID)
		if err != nil {
			cli.LogFatal(logger, "failed to generate token", err)
		}

		fmt.Println()
		printKV("Subject", subject, "Role", role)
		printKV("Event", appConfig.Event.ID, "Expires In", strconv.FormatInt(pair.ExpiresIn, 10)+"s")
		printKV("Access Token", pair.AccessToken)
		printKV("Refresh Token", pair.RefreshToken)
	},
}

func init() {
	tokenCmd.AddCommand(tokenGenerateCmd)

	tokenGenerateCmd.PersistentFlags().
		StringP("subject", "u", "", "Subject for the token (guest email or admin identity)")
	tokenGenerateCmd.PersistentFlags().
		StringP("role", "r", authtoken.RoleGuest, "Role for the token (GUEST or ADMIN)")
	tokenGenerateCmd.PersistentFlags().
		StringP("group", "g", "", "Invitation group identifier")

	_ = tokenGenerateCmd.MarkPersistentFlagRequired("subject")

	tokenGenerateCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		role, _ := cmd.Flags().GetString("role")
		if role != authtoken.RoleGuest && role != authtoken.RoleAdmin {
			cli.LogFatal(logger, "invalid role",
				fmt.Errorf("unsupported role: %s", role),
				"allowed", authtoken.RoleGuest+", "+authtoken.RoleAdmin)
		}
	}
}
