// Package agent exposes the credit operations as string-in/string-out tools
// for the conversational sales agent. Tools never return Go errors for bad
// input: they answer with a readable "Error: ..." message instead.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"credit-sales/domain"
	"credit-sales/logging"
)

const (
	ToolCalculateLoan      = "calculate_loan"
	ToolCreditPolicyLookup = "credit_policy_lookup"
	ToolCreditApplication  = "credit_application"
)

var ErrUnknownTool = errors.New("unknown tool")

// Func is the body of a tool.
type Func func(ctx context.Context, input string) string

type Tool struct {
	Name        string
	Description string
	Run         Func
}

// LoanCalculator is the part of the loan service the calculate_loan tool needs.
type LoanCalculator interface {
	CalculateLoan(ctx context.Context, req domain.LoanRequest) (domain.LoanQuote, error)
}

// PolicyLookup answers free-text policy questions.
type PolicyLookup interface {
	Lookup(query string) string
}

// Toolset is a fixed collection of tools addressed by name.
type Toolset struct {
	tools  map[string]Tool
	logger *zap.Logger
}

func NewToolset(logger *zap.Logger, tools ...Tool) *Toolset {
	ts := &Toolset{
		tools:  make(map[string]Tool, len(tools)),
		logger: logging.OrNop(logger),
	}
	for _, t := range tools {
		ts.tools[t.Name] = t
	}
	return ts
}

// Call runs the named tool. The only error is ErrUnknownTool.
func (ts *Toolset) Call(ctx context.Context, name, input string) (string, error) {
	tool, ok := ts.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	ts.logger.Debug("tool call", zap.String("tool", name), zap.Int("input_bytes", len(input)))
	out := tool.Run(ctx, input)
	if strings.HasPrefix(out, "Error") {
		ts.logger.Info("tool rejected input", zap.String("tool", name), zap.String("reason", out))
	}
	return out, nil
}

// Tools lists the registered tools sorted by name.
func (ts *Toolset) Tools() []Tool {
	out := make([]Tool, 0, len(ts.tools))
	for _, t := range ts.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CreditPolicyLookupTool wraps a policy catalog.
func CreditPolicyLookupTool(policies PolicyLookup) Tool {
	return Tool{
		Name:        ToolCreditPolicyLookup,
		Description: "Consulta las políticas de crédito para verificar requisitos y condiciones",
		Run: func(_ context.Context, input string) string {
			return policies.Lookup(input)
		},
	}
}

// decodeObject parses input as a JSON object and checks that every required
// key is present. The returned message is empty on success.
func decodeObject(input string, required []string) (map[string]json.RawMessage, string) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal([]byte(input), &data); err != nil || data == nil {
		return nil, "Error: Los parámetros no tienen un formato válido. Debe ser un JSON válido."
	}
	var missing []string
	for _, field := range required {
		if _, ok := data[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, "Error: Faltan los siguientes campos requeridos: " + strings.Join(missing, ", ")
	}
	return data, ""
}

// NewCreditSalesToolset registers the three tools of the credit sales agent.
func NewCreditSalesToolset(
	calc LoanCalculator,
	policies PolicyLookup,
	submitter ApplicationSubmitter,
	logger *zap.Logger,
) *Toolset {
	return NewToolset(logger,
		CreditPolicyLookupTool(policies),
		CreditApplicationTool(submitter, logger),
		CalculateLoanTool(calc, logger),
	)
}
