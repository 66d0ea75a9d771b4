// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/resolvd-dev/resolvd/internal/embed"
	"github.com/resolvd-dev/resolvd/internal/secrets"
	"github.com/resolvd-dev/resolvd/internal/store"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// documentSeed is one knowledge-base entry in a seed file.
type documentSeed struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	// Answer, when set, lets a close match answer a ticket directly.
	Answer string `yaml:"answer"`
}

// pastTicketSeed is one resolved historical ticket in a seed file.
type pastTicketSeed struct {
	ID         string `yaml:"id"`
	Subject    string `yaml:"subject"`
	Body       string `yaml:"body"`
	Resolution string `yaml:"resolution"`
}

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Seed the catalog and vector indexes from YAML corpus files",
		Long: "Loads products into the catalog and embeds products, documents, " +
			"and past tickets into the vector index. Each flag takes a YAML file " +
			"holding a list of records; re-running upserts in place.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, _ := cmd.Flags().GetString("products")
			documents, _ := cmd.Flags().GetString("documents")
			tickets, _ := cmd.Flags().GetString("tickets")
			if products == "" && documents == "" && tickets == "" {
				return resolvderr.New(resolvderr.CodeCLIInputInvalid,
					"nothing to index: provide --products, --documents, or --tickets")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			embedder, err := newEmbedder(cfg, secrets.NewKeyringStore())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if products != "" {
				if err := indexProducts(ctx, rt, embedder, products); err != nil {
					return err
				}
			}
			if documents != "" {
				if err := indexDocuments(ctx, rt, embedder, documents); err != nil {
					return err
				}
			}
			if tickets != "" {
				if err := indexPastTickets(ctx, rt, embedder, tickets); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().String("products", "", "YAML file with product catalog entries")
	cmd.Flags().String("documents", "", "YAML file with knowledge-base documents")
	cmd.Flags().String("tickets", "", "YAML file with resolved past tickets")

	return cmd
}

func indexProducts(ctx context.Context, rt *runtime, embedder embed.Embedder, path string) error {
	var seeds []store.Product
	if err := readSeedFile(path, &seeds); err != nil {
		return err
	}

	for i, p := range seeds {
		if p.ID == "" || p.Title == "" {
			return resolvderr.Errorf(resolvderr.CodeIndexSeedInvalid,
				"%s: product[%d] must have id and title", path, i)
		}
		if err := rt.catalog.Upsert(ctx, &p); err != nil {
			return err
		}

		vec, err := embedder.Embed(ctx, productEmbedText(&p))
		if err != nil {
			return err
		}
		meta := map[string]any{
			"title":    p.Title,
			"model_no": p.ModelNo,
			"category": p.Category,
		}
		if err := rt.vectors.Store(ctx, store.NamespaceProducts, p.ID, vec, meta, p.Description); err != nil {
			return err
		}
	}

	slog.Info("indexed products", "file", path, "count", len(seeds))
	return nil
}

func indexDocuments(ctx context.Context, rt *runtime, embedder embed.Embedder, path string) error {
	var seeds []documentSeed
	if err := readSeedFile(path, &seeds); err != nil {
		return err
	}

	for i, d := range seeds {
		if d.ID == "" || d.Title == "" || d.Content == "" {
			return resolvderr.Errorf(resolvderr.CodeIndexSeedInvalid,
				"%s: document[%d] must have id, title, and content", path, i)
		}
		vec, err := embedder.Embed(ctx, d.Title+"\n"+d.Content)
		if err != nil {
			return err
		}
		meta := map[string]any{"title": d.Title}
		if d.Answer != "" {
			meta["answer"] = d.Answer
		}
		if err := rt.vectors.Store(ctx, store.NamespaceDocuments, d.ID, vec, meta, d.Content); err != nil {
			return err
		}
	}

	slog.Info("indexed documents", "file", path, "count", len(seeds))
	return nil
}

func indexPastTickets(ctx context.Context, rt *runtime, embedder embed.Embedder, path string) error {
	var seeds []pastTicketSeed
	if err := readSeedFile(path, &seeds); err != nil {
		return err
	}

	for i, pt := range seeds {
		if pt.ID == "" || pt.Subject == "" {
			return resolvderr.Errorf(resolvderr.CodeIndexSeedInvalid,
				"%s: ticket[%d] must have id and subject", path, i)
		}
		vec, err := embedder.Embed(ctx, strings.TrimSpace(pt.Subject+"\n"+pt.Body))
		if err != nil {
			return err
		}
		meta := map[string]any{"subject": pt.Subject}
		if err := rt.vectors.Store(ctx, store.NamespacePastTickets, pt.ID, vec, meta, pt.Resolution); err != nil {
			return err
		}
	}

	slog.Info("indexed past tickets", "file", path, "count", len(seeds))
	return nil
}

func productEmbedText(p *store.Product) string {
	parts := []string{p.Title}
	if p.Category != "" {
		parts = append(parts, p.Category)
	}
	if p.Finish != "" {
		parts = append(parts, p.Finish)
	}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}
	return strings.Join(parts, ". ")
}

func readSeedFile(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeCLIInputInvalid, "reading seed file %s", path)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeIndexSeedInvalid, "parsing seed file %s", path)
	}
	return nil
}
