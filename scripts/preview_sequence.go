//go:build ignore

// Script to render a full follow-up sequence to stdout for copy review.
// Run with: go run scripts/preview_sequence.go -name Emma -email emma@example.com -service teaching
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/arosling/stageside/internal/catalog"
	"github.com/arosling/stageside/internal/domain"
)

func main() {
	name := flag.String("name", "Sam Rivera", "Lead name used for token substitution")
	email := flag.String("email", "sam@example.com", "Lead email used for token substitution")
	service := flag.String("service", "performance", "Service type (performance, teaching, collaboration, general)")
	flag.Parse()

	svc, err := domain.ParseServiceType(*service)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown service %q\n", *service)
		os.Exit(1)
	}

	cat, err := catalog.New()
	if err != nil {
		log.Fatalf("failed to build template catalog: %v", err)
	}

	templates := cat.Templates(svc)
	tokens := map[string]string{
		"name":    *name,
		"email":   *email,
		"service": string(svc),
	}

	for i, tmpl := range templates {
		subject, text := catalog.Render(tmpl.Subject, tokens), catalog.Render(tmpl.TextContent, tokens)
		fmt.Printf("=== Stage %d: %s (+%dh) ===\n", i+1, tmpl.Type, tmpl.DelayHours)
		fmt.Printf("Subject: %s\n\n%s\n\n", subject, text)
	}
}
