package chunk

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const tokenizerEncoding = "o200k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoder() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(tokenizerEncoding)
	})
	if encErr != nil {
		return nil, fmt.Errorf("chunk: load tokenizer: %w", encErr)
	}
	return enc, nil
}

func countTokens(text string) (int, error) {
	tke, err := encoder()
	if err != nil {
		return 0, err
	}
	return len(tke.Encode(text, nil, nil)), nil
}
