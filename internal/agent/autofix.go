package agent

import (
	"context"
	"fmt"
	"log"

	"vibecode/internal/llm"
	"vibecode/internal/models"
	"vibecode/internal/webcode"
)

// maxFixRetries is the corrective-regeneration budget per run.
const maxFixRetries = 3

// fixState is the state of one generate-execute-autofix run.
type fixState int

const (
	stateGenerated fixState = iota
	stateExecuted
	stateFixing
	stateDone
)

// Run generates code for the prompt, executes it in the sandbox, and — when
// autoFix is set — feeds stderr back to the LLM for up to maxFixRetries
// corrective regenerations. The loop always terminates: either stderr comes
// back empty or the retry budget runs out. The result carries the final
// code, output, stderr, exit code and retries consumed; termination does
// not imply success.
func (a *Agent) Run(ctx context.Context, prompt, language string, autoFix bool) (*models.RunResult, error) {
	code, err := a.Generate(ctx, prompt, language)
	if err != nil {
		return nil, err
	}

	state := stateGenerated
	retries := 0
	var exec *models.ExecResult

	for state != stateDone {
		switch state {
		case stateGenerated:
			exec, err = a.Execute(ctx, code, language)
			if err != nil {
				return nil, err
			}
			state = stateExecuted

		case stateExecuted:
			if !autoFix || exec.Stderr == "" || retries >= maxFixRetries {
				state = stateDone
				break
			}
			state = stateFixing

		case stateFixing:
			retries++
			log.Printf("Agent: Error detected, attempting fix (%d/%d)", retries, maxFixRetries)
			code, err = a.fixCode(ctx, code, exec.Stderr, language)
			if err != nil {
				return nil, err
			}
			exec, err = a.Execute(ctx, code, language)
			if err != nil {
				return nil, err
			}
			state = stateExecuted
		}
	}

	return &models.RunResult{
		Prompt:   prompt,
		Code:     code,
		Language: language,
		Output:   exec.Stdout,
		Errors:   exec.Stderr,
		ExitCode: exec.ExitCode,
		Retries:  retries,
	}, nil
}

// fixCode sends the failing code and its stderr to the LLM and extracts the
// corrected version.
func (a *Agent) fixCode(ctx context.Context, code, errText, language string) (string, error) {
	messages := []models.Message{
		{Role: models.RoleSystem, Content: fixSystemPrompt(language)},
		{Role: models.RoleUser, Content: fixUserPrompt(code, errText, language)},
	}

	response, err := a.llm.Chat(ctx, messages, llm.ChatOptions{Temperature: 0.2, MaxTokens: 4096})
	if err != nil {
		return "", fmt.Errorf("fix code: %w", err)
	}
	return webcode.ExtractCode(response, language), nil
}
