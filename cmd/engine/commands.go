package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linkedva-engine/internal/brand"
	"linkedva-engine/internal/browser"
	"linkedva-engine/internal/domain"
	"linkedva-engine/internal/engagement"
	"linkedva-engine/internal/export"
	"linkedva-engine/internal/extract"
	"linkedva-engine/internal/model"
	"linkedva-engine/internal/page"
	"linkedva-engine/internal/reply"
	"linkedva-engine/internal/secrets"
	"linkedva-engine/internal/store"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newExtractLeadCmd(a *app) *cobra.Command {
	var (
		pageURL  string
		htmlPath string
		selected string
		save     bool
		asText   bool
	)
	cmd := &cobra.Command{
		Use:   "extract-lead",
		Short: "Extract a lead from a profile page with the language model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var html string
			switch {
			case htmlPath != "":
				b, err := os.ReadFile(htmlPath)
				if err != nil {
					return err
				}
				html = string(b)
			case pageURL != "":
				var err error
				if html, err = a.fetchFunc(ctx)(ctx, pageURL); err != nil {
					return err
				}
			default:
				return errors.New("one of --url or --html is required")
			}

			doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
			if err != nil {
				return err
			}
			x := extract.Extractor{Trafilatura: a.cfg().Extract.GenericTrafilatura, Log: a.log}
			lead, err := model.ExtractLead(ctx, a.provider(), model.LeadInput{
				PageContent:  x.Page(doc, pageURL),
				SelectedText: selected,
				PageURL:      pageURL,
			})
			if err != nil {
				return errors.New(reply.Message(err))
			}
			if save {
				saved, total, err := store.NewLeads(a.kv).Save(ctx, lead, pageURL)
				if err != nil {
					return err
				}
				lead = saved
				a.log.Info("lead saved", zap.String("id", saved.ID), zap.Int("total", total))
			}
			if asText {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), lead.CopyText())
				return err
			}
			return printJSON(cmd.OutOrStdout(), lead)
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "profile page url")
	cmd.Flags().StringVar(&htmlPath, "html", "", "saved page html instead of fetching --url")
	cmd.Flags().StringVar(&selected, "selected", "", "selected text to prioritise")
	cmd.Flags().BoolVar(&save, "save", false, "store the lead")
	cmd.Flags().BoolVar(&asText, "text", false, "print the clipboard text form")
	return cmd
}

func newCrawlEngagementCmd(a *app) *cobra.Command {
	var postURL string
	cmd := &cobra.Command{
		Use:   "crawl-engagement",
		Short: "Collect commenters and likers of a post and store them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if postURL == "" {
				return errors.New("--url is required")
			}
			if !engagement.IsPostURL(postURL) {
				return fmt.Errorf("%s: %w", postURL, engagement.ErrNotAPost)
			}
			ctx := cmd.Context()
			crawlCtx := ctx
			if ms := a.cfg().Crawler.TimeoutMS; ms > 0 {
				var cancel context.CancelFunc
				crawlCtx, cancel = context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
				defer cancel()
			}
			eng, err := a.crawlFunc(ctx)(crawlCtx, postURL)
			if err != nil {
				if errors.Is(err, browser.ErrContextInvalidated) {
					return errors.New(browser.InvalidatedMessage)
				}
				return err
			}
			total, err := store.NewEngagements(a.kv).Save(ctx, eng)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "post %s: %d commenters, %d likers (%d posts stored)\n",
				eng.PostID, eng.Stats.TotalComments, eng.Stats.TotalLikes, total)
			return err
		},
	}
	cmd.Flags().StringVar(&postURL, "url", "", "post url")
	return cmd
}

// exportDir resolves the configured export directory against the data dir.
func (a *app) exportDir(override string) string {
	dir := override
	if dir == "" {
		dir = a.cfg().Export.Dir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(a.dataDir, dir)
	}
	return dir
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored leads or engagement data as CSV",
	}
	cmd.PersistentFlags().StringVar(&out, "out", "", "output directory (default export.dir)")

	report := func(cmd *cobra.Command, path string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "leads",
		Short: "Export every stored lead",
		RunE: func(cmd *cobra.Command, _ []string) error {
			leads, err := store.NewLeads(a.kv).List(cmd.Context())
			if err != nil {
				return err
			}
			if len(leads) == 0 {
				return errors.New("no leads to export")
			}
			path, err := export.ToFile(a.exportDir(out), export.LeadsFilename(time.Now()), func(w io.Writer) error {
				return export.Leads(w, leads)
			})
			if err != nil {
				return err
			}
			return report(cmd, path)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "engagements [post-id]",
		Short: "Export engagement rows for every post, or one post",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engs := store.NewEngagements(a.kv)
			now := time.Now()

			var list []domain.Engagement
			name := export.EngagementsFilename(now)
			if len(args) == 1 {
				e, err := engs.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				list = []domain.Engagement{e}
				name = export.EngagementFilename(e.PostID, now)
			} else {
				var err error
				if list, err = engs.List(cmd.Context()); err != nil {
					return err
				}
			}

			var rows int
			path, err := export.ToFile(a.exportDir(out), name, func(w io.Writer) error {
				var err error
				rows, err = export.Engagements(w, list)
				return err
			})
			if err != nil {
				return err
			}
			if rows == 0 {
				_ = os.Remove(path)
				return errors.New("no engagement data to export")
			}
			return report(cmd, path)
		},
	})
	return cmd
}

func newBrandCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brand",
		Short: "Manage the brand profile used for reply drafting",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored brand profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := store.NewBrand(a.kv).Get(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the brand profile with a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			p, err := brand.Import(data)
			if err != nil {
				return err
			}
			return store.NewBrand(a.kv).Put(cmd.Context(), p)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Write the brand profile as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := store.NewBrand(a.kv).Get(cmd.Context())
			if err != nil {
				return err
			}
			if p == nil {
				return errors.New("nothing to export yet")
			}
			data, err := brand.Export(p)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(args[0], data, 0o644)
		},
	})

	var form brand.Form
	gen := &cobra.Command{
		Use:   "generate",
		Short: "Generate a brand profile from setup answers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			bs := store.NewBrand(a.kv)
			now := time.Now()
			p, err := brand.Generate(ctx, a.provider(), brand.PayloadFromForm(form), now)
			if err != nil {
				return errors.New(reply.Message(err))
			}
			if old, err := bs.Get(ctx); err == nil && old != nil && old.CreatedAt != "" {
				p.CreatedAt = old.CreatedAt
			}
			if err := bs.Put(ctx, p); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	f := gen.Flags()
	f.StringVar(&form.Mission, "mission", "", "what the brand does")
	f.StringVar(&form.BrandFact, "fact", "", "a fact replies may mention")
	f.StringVar(&form.Adjectives, "adjectives", "", "comma separated tone words")
	f.StringVar(&form.Dos, "dos", "", "one rule per line")
	f.StringVar(&form.Donts, "donts", "", "one rule per line")
	f.StringArrayVar(&form.Samples, "sample", nil, "sample reply (repeatable)")
	f.StringVar(&form.TargetLanguage, "language", "", "translation target language")
	cmd.AddCommand(gen)

	return cmd
}

func newReplyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reply",
		Short: "Draft or translate replies with the brand voice",
	}

	var (
		pageURL string
		field   page.Element
		insert  int
	)
	draft := &cobra.Command{
		Use:   "draft",
		Short: "Draft replies for a comment box on a live page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.chrome(ctx)
			if err != nil {
				return err
			}
			tab, err := b.Open(ctx, pageURL)
			if err != nil {
				return err
			}
			defer tab.Close()

			html, err := tab.HTML(ctx)
			if err != nil {
				return err
			}
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
			if err != nil {
				return err
			}
			sel := page.Resolve(doc, field)
			if !reply.Eligible(sel, pageURL) {
				return fmt.Errorf("%s[%d] is not a reply field", field.Selector, field.Index)
			}

			bs := store.NewBrand(a.kv)
			as := reply.NewAssistant(a.provider(), bs.Get, a.log)
			as.Stream = a.cfg().Model.Stream
			drafts, err := as.Draft(ctx, reply.CollectContext(doc, sel, nil, pageURL))
			if err != nil {
				return errors.New(reply.Message(err))
			}
			for i, d := range drafts {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, d)
			}
			if insert < 1 {
				return nil
			}
			if insert > len(drafts) {
				return fmt.Errorf("--insert %d: only %d drafts", insert, len(drafts))
			}
			return browser.Editor{Tab: tab, Field: field}.Insert(ctx, drafts[insert-1])
		},
	}
	draft.Flags().StringVar(&pageURL, "url", "", "page url")
	draft.Flags().StringVar(&field.Selector, "field", "", "css selector of the reply box")
	draft.Flags().IntVar(&field.Index, "index", 0, "match index of --field")
	draft.Flags().IntVar(&insert, "insert", 0, "insert draft n into the field")
	_ = draft.MarkFlagRequired("url")
	_ = draft.MarkFlagRequired("field")
	cmd.AddCommand(draft)

	cmd.AddCommand(&cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text into the brand's target language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			as := reply.NewAssistant(a.provider(), store.NewBrand(a.kv).Get, a.log)
			out, err := as.Translate(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return errors.New(reply.Message(err))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	})
	return cmd
}

func newSecretsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage the model API key in the OS keychain",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-model-key [key]",
		Short: "Store the model API key (reads stdin when no key is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				key = line
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return errors.New("empty key")
			}
			return secrets.SetModelKey(a.cfg(), key)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete-model-key",
		Short: "Remove the stored model API key",
		RunE: func(*cobra.Command, []string) error {
			return secrets.DeleteModelKey(a.cfg())
		},
	})
	return cmd
}
