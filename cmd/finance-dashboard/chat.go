package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/iwvelando/finance-dashboard/internal/assistant"
	"github.com/iwvelando/finance-dashboard/pkg/format"
	"github.com/iwvelando/finance-dashboard/pkg/output"
	"go.uber.org/zap"
)

type chatCmd struct {
	style string
}

func (*chatCmd) Name() string     { return "chat" }
func (*chatCmd) Synopsis() string { return "ask the financial assistant a question" }
func (*chatCmd) Usage() string {
	return `finance-dashboard chat [-style <glamour style>] [<question>...]

  Prints the assistant reply to the question. Without a question, prints the
  greeting and the suggested questions.
`
}

func (c *chatCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.style, "style", output.DefaultStyle, "glamour style: auto, dark, light, notty, ascii")
}

func (c *chatCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		return fatal("main.chat", err)
	}
	defer a.close()

	formatter, err := format.Currency(a.conf.Dashboard.Currency)
	if err != nil {
		return fatal("main.chat", err)
	}
	bot, err := assistant.New(a.logger, formatter)
	if err != nil {
		a.logger.Error("failed to load assistant",
			zap.String("op", "main.chat"),
			zap.Error(err),
		)
		return subcommands.ExitFailure
	}

	question := strings.TrimSpace(strings.Join(f.Args(), " "))
	if question == "" {
		printMarkdown(greetingMarkdown(bot), c.style)
		return subcommands.ExitSuccess
	}

	reply := bot.Ask(question)
	a.logger.Debug("assistant replied",
		zap.String("op", "main.chat"),
		zap.String("topic", reply.Topic),
	)
	printMarkdown(reply.Content, c.style)
	return subcommands.ExitSuccess
}

func greetingMarkdown(bot *assistant.Assistant) string {
	var b strings.Builder
	b.WriteString(bot.Greeting())
	b.WriteString("\n\n")
	for _, q := range bot.Questions() {
		fmt.Fprintf(&b, "- %s\n", q)
	}
	return b.String()
}
