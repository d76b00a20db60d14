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
	"github.com/spf13/cobra"
)

// notifyCmd represents the notify command.
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "The notification pipeline",
	Long: `The notification pipeline: the change-feed enricher, the delivery
worker, and the provider feedback processor.
`,
}

// notifyWorkerCmd represents the notifyWorker command.
var notifyWorkerCmd = &cobra.Command{
	Use:   "worker",
	Short: "The notification delivery worker",
	Long: `The notification delivery worker.
`,
}

// notifyEnricherCmd represents the notifyEnricher command.
var notifyEnricherCmd = &cobra.Command{
	Use:   "enricher",
	Short: "The change-feed enricher",
	Long: `The change-feed enricher.
`,
}

// notifyFeedbackCmd represents the notifyFeedback command.
var notifyFeedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "The provider feedback processor",
	Long: `The provider feedback processor.
`,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyWorkerCmd)
	notifyCmd.AddCommand(notifyEnricherCmd)
	notifyCmd.AddCommand(notifyFeedbackCmd)
}
