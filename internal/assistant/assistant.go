// Package assistant answers financial questions from an ordered table of
// keyword rules. It does no language understanding: the first rule with a
// keyword contained in the question wins, otherwise a fallback is returned.
package assistant

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/iwvelando/finance-dashboard/pkg/format"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// FallbackTopic is the topic of replies that matched no rule.
const FallbackTopic = "fallback"

// ErrInvalidRules is returned when a rule table cannot be used.
var ErrInvalidRules = errors.New("invalid assistant rules")

// Rule maps keywords to a canned response.
type Rule struct {
	Topic    string   `yaml:"topic"`
	Keywords []string `yaml:"keywords"`
	Response string   `yaml:"response"`
}

type ruleFile struct {
	Greeting  string   `yaml:"greeting"`
	Questions []string `yaml:"questions"`
	Rules     []Rule   `yaml:"rules"`
	Fallback  string   `yaml:"fallback"`
}

// Reply is the answer to one question. Content is markdown, HTML its
// rendering.
type Reply struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
	HTML    string `json:"html"`
}

type compiledRule struct {
	keywords []string
	reply    Reply
}

// Assistant holds a compiled rule table. It is safe for concurrent use.
type Assistant struct {
	logger    *zap.Logger
	greeting  string
	questions []string
	rules     []compiledRule
	fallback  Reply
}

// New returns an assistant using the built-in rules, with amounts formatted
// by formatter.
func New(logger *zap.Logger, formatter format.ValueFormatter) (*Assistant, error) {
	return Load(logger, defaultRules, formatter)
}

// Load compiles a YAML rule table. Responses are templates; {{money N}}
// renders N with formatter.
func Load(logger *zap.Logger, data []byte, formatter format.ValueFormatter) (*Assistant, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if formatter == nil {
		return nil, fmt.Errorf("%w: nil formatter", ErrInvalidRules)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode assistant rules: %w", err)
	}
	if strings.TrimSpace(file.Fallback) == "" {
		return nil, fmt.Errorf("%w: missing fallback response", ErrInvalidRules)
	}

	funcs := template.FuncMap{"money": func(v float64) string { return formatter(v) }}
	a := &Assistant{
		logger:    logger,
		greeting:  strings.TrimSpace(file.Greeting),
		questions: file.Questions,
	}

	for i, rule := range file.Rules {
		if rule.Topic == "" {
			return nil, fmt.Errorf("%w: rule %d has no topic", ErrInvalidRules, i)
		}
		var keywords []string
		for _, kw := range rule.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("%w: rule %q has no keywords", ErrInvalidRules, rule.Topic)
		}
		reply, err := compileReply(rule.Topic, rule.Response, funcs)
		if err != nil {
			return nil, err
		}
		a.rules = append(a.rules, compiledRule{keywords: keywords, reply: reply})
	}

	fallback, err := compileReply(FallbackTopic, file.Fallback, funcs)
	if err != nil {
		return nil, err
	}
	a.fallback = fallback

	logger.Debug(fmt.Sprintf("loaded %d assistant rules", len(a.rules)),
		zap.String("op", "assistant.Load"),
	)
	return a, nil
}

func compileReply(topic, response string, funcs template.FuncMap) (Reply, error) {
	tmpl, err := template.New(topic).Funcs(funcs).Option("missingkey=error").Parse(response)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: response %q: %v", ErrInvalidRules, topic, err)
	}
	var content bytes.Buffer
	if err := tmpl.Execute(&content, nil); err != nil {
		return Reply{}, fmt.Errorf("%w: response %q: %v", ErrInvalidRules, topic, err)
	}
	text := strings.TrimSpace(content.String())

	var html bytes.Buffer
	if err := goldmark.Convert([]byte(text), &html); err != nil {
		return Reply{}, fmt.Errorf("failed to render response %q: %w", topic, err)
	}
	return Reply{Topic: topic, Content: text, HTML: html.String()}, nil
}

// Greeting returns the opening message of a conversation.
func (a *Assistant) Greeting() string { return a.greeting }

// Questions returns the suggested questions.
func (a *Assistant) Questions() []string {
	return append([]string(nil), a.questions...)
}

// Topics returns the rule topics in match order.
func (a *Assistant) Topics() []string {
	topics := make([]string, len(a.rules))
	for i, r := range a.rules {
		topics[i] = r.reply.Topic
	}
	return topics
}

// Ask returns the reply of the first rule matching question, or the fallback.
func (a *Assistant) Ask(question string) Reply {
	q := strings.ToLower(question)
	for _, r := range a.rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.reply
			}
		}
	}
	return a.fallback
}
