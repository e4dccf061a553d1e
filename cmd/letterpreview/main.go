package main

// Render a letter template locally:
//   go run ./cmd/letterpreview -template ./GITHUB_TRAINEE.docx -set name=Jane -out ./out/letter.pdf
// Without -converter only the populated DOCX is written.

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trainee-backend/internal/converter"
	"trainee-backend/internal/docxtemplate"
)

type pairs map[string]string

func (p pairs) String() string { return fmt.Sprint(map[string]string(p)) }

func (p pairs) Set(raw string) error {
	key, val, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", raw)
	}
	p[strings.TrimSpace(key)] = val
	return nil
}

func main() {
	data := pairs{}
	templatePath := flag.String("template", "", "path to a .docx letter template")
	dataPath := flag.String("data", "", "optional JSON file with placeholder values")
	outPath := flag.String("out", "./out/letter.pdf", "output path")
	converterURL := flag.String("converter", "", "Gotenberg base URL; empty writes DOCX only")
	timeout := flag.Duration("timeout", time.Minute, "conversion timeout")
	flag.Var(data, "set", "placeholder value as key=value (repeatable)")
	flag.Parse()

	if *templatePath == "" {
		fmt.Fprintln(os.Stderr, "-template is required")
		os.Exit(2)
	}

	if err := run(*templatePath, *dataPath, *outPath, *converterURL, *timeout, data); err != nil {
		fmt.Fprintf(os.Stderr, "letterpreview failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK: wrote %s\n", *outPath)
}

func run(templatePath, dataPath, outPath, converterURL string, timeout time.Duration, data pairs) error {
	tmpl, err := os.ReadFile(templatePath)
	if err != nil {
		return err
	}
	if dataPath != "" {
		fileData, err := readData(dataPath)
		if err != nil {
			return err
		}
		for k, v := range fileData {
			if _, set := data[k]; !set {
				data[k] = v
			}
		}
	}

	populated, err := docxtemplate.Populate(tmpl, data)
	if err != nil {
		return err
	}
	if remaining, err := docxtemplate.Placeholders(populated); err == nil && len(remaining) > 0 {
		fmt.Fprintf(os.Stderr, "warning: unresolved placeholders: %s\n", strings.Join(remaining, ", "))
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if converterURL == "" {
		return os.WriteFile(strings.TrimSuffix(outPath, filepath.Ext(outPath))+".docx", populated, 0o644)
	}

	client, err := converter.New(converter.Options{BaseURL: converterURL, Timeout: timeout})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pdf, err := client.Convert(ctx, bytes.NewReader(populated), filepath.Base(templatePath))
	if err != nil {
		return err
	}
	defer pdf.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, pdf); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func readData(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}
