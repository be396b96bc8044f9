package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const input = `{"cart":{"lines":[
	{"id":"gid://shopify/CartLine/1","quantity":7,"merchandise":{"__typename":"ProductVariant","product":{"hasAnyTag":true,"metafield":{"value":"{\"discounts\":[{\"quantity\":5,\"discount\":10,\"message\":\"5+\"}]}"}}}},
	{"id":"gid://shopify/CartLine/2","quantity":7,"merchandise":{"__typename":"ProductVariant","product":{"hasAnyTag":true,"metafield":{"value":"{broken"}}}}
]}}`

func TestRunWritesResult(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, strings.NewReader(input), &stdout, &stderr)

	require.Equal(t, 0, code)
	require.JSONEq(t,
		`{"discountApplicationStrategy":"MAXIMUM","discounts":[{"message":"5+","targets":[{"cartLine":{"id":"gid://shopify/CartLine/1"}}],"value":{"percentage":{"value":"10"}}}]}`,
		stdout.String())
	require.Contains(t, stderr.String(), "gid://shopify/CartLine/2")
}

func TestRunExplain(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-explain"}, strings.NewReader(input), &stdout, &stderr)

	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), `"outcome":"applied"`)
	require.Contains(t, stdout.String(), `"outcome":"malformed_metafield"`)
}

func TestRunReadsInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cart":{"lines":[]}}`), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-input", path}, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, code)
	require.JSONEq(t, `{"discountApplicationStrategy":"FIRST","discounts":[]}`, stdout.String())
}

func TestRunUndecodableInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, strings.NewReader("not json"), &stdout, &stderr)

	require.Equal(t, 1, code)
	require.Empty(t, stdout.String())
	require.Contains(t, stderr.String(), "decode run input")
}
