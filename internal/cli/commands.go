package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/deidaraiorek/snowstem/internal/annotation"
	"github.com/deidaraiorek/snowstem/internal/document"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/server"
	"github.com/deidaraiorek/snowstem/internal/stemmer"
	"github.com/deidaraiorek/snowstem/internal/stemming"
	"github.com/deidaraiorek/snowstem/internal/storage"
)

func newTokenizeCmd(a *app) *cobra.Command {
	var (
		save    bool
		setName string
	)

	cmd := &cobra.Command{
		Use:   "tokenize [files or globs...]",
		Short: "Print or store the token annotations of documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := document.Expand(args)
			if err != nil {
				return err
			}

			tok := a.cfg.Tokenizer.New()
			annType := a.cfg.Stemmer.AnnotationType
			if setName == "" {
				setName = a.cfg.Stemmer.AnnotationSet
			}

			docs := make([]*annotation.Document, 0, len(files))
			w := cmd.OutOrStdout()
			for _, f := range files {
				doc, err := document.LoadFile(f)
				if err != nil {
					return err
				}
				n := tok.Annotate(doc, setName, annType)
				fmt.Fprintf(w, "%s: %d tokens\n", doc.Name(), n)
				if !save {
					set, _ := doc.Set(setName)
					for _, t := range set.Get(annType) {
						fmt.Fprintf(w, "  %5d-%-5d %-20s %-6s stop=%v\n",
							t.Start, t.End, t.Features["string"], t.Features["kind"], t.Features["stop"])
					}
				}
				docs = append(docs, doc)
			}

			if !save {
				return nil
			}
			store, unlock, err := a.openLockedStore()
			if err != nil {
				return err
			}
			defer unlock()
			defer store.Close()
			for _, doc := range docs {
				if err := store.Save(cmd.Context(), doc); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the tokenized documents instead of printing tokens")
	cmd.Flags().StringVar(&setName, "set", "", "annotation set receiving the tokens")
	return cmd
}

func newLanguagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported stemming languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, lang := range stemmer.Languages() {
				marker := " "
				if lang == a.cfg.Stemmer.Language {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s\n", marker, lang)
			}
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a stored document and its annotations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(a.cfg.Storage.Backend, a.cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeDocumentJSON(cmd.OutOrStdout(), doc)
			}
			printDocument(cmd.OutOrStdout(), doc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the document as JSON")
	return cmd
}

func printDocument(w io.Writer, doc *annotation.Document) {
	fmt.Fprintf(w, "Document: %s (%d bytes)\n", doc.Name(), len(doc.Content()))
	printSet(w, doc, "", doc.Annotations())
	for _, name := range doc.SetNames() {
		set, _ := doc.Set(name)
		printSet(w, doc, name, set)
	}
}

func printSet(w io.Writer, doc *annotation.Document, name string, set *annotation.AnnotationSet) {
	if set.Size() == 0 {
		return
	}
	label := name
	if label == "" {
		label = "<default>"
	}
	fmt.Fprintf(w, "\nSet %s: %d annotations\n", label, set.Size())
	for _, ann := range set.All() {
		stem, ok := ann.Features.GetString(stemming.StemFeature)
		if !ok {
			stem = "-"
		}
		fmt.Fprintf(w, "  %-10s %5d-%-5d %-20q %s\n", ann.Type, ann.Start, ann.End, doc.Text(ann), stem)
	}
}

func writeDocumentJSON(w io.Writer, doc *annotation.Document) error {
	type setOut struct {
		Name        string                   `json:"name"`
		Annotations []*annotation.Annotation `json:"annotations"`
	}
	out := struct {
		Name    string   `json:"name"`
		Content string   `json:"content"`
		Sets    []setOut `json:"sets"`
	}{Name: doc.Name(), Content: doc.Content()}

	out.Sets = append(out.Sets, setOut{Name: "", Annotations: doc.Annotations().All()})
	for _, name := range doc.SetNames() {
		set, _ := doc.Set(name)
		out.Sets = append(out.Sets, setOut{Name: name, Annotations: set.All()})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(a.cfg.Storage.Backend, a.cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			docs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(w, "No stored documents.")
				return nil
			}
			for _, d := range docs {
				fmt.Fprintf(w, "%-30s %6d annotations  %s\n", d.Name, d.Annotations, d.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, unlock, err := a.openLockedStore()
			if err != nil {
				return err
			}
			defer unlock()
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		noStore bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			var (
				store     storage.Store
				storePath string
			)
			if !noStore {
				var err error
				storePath = a.cfg.Storage.Path
				if store, err = storage.Open(a.cfg.Storage.Backend, storePath); err != nil {
					return err
				}
				defer store.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(a.cfg, store, storePath, a.logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "serve without document storage")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to snowstem.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(a.rootDir, "snowstem.yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return stemerrors.ConfigError(fmt.Sprintf("%s already exists", path), nil).
					WithSuggestion("use --force to overwrite")
			}
			if err := a.cfg.Save(path); err != nil {
				return stemerrors.ConfigError("failed to write config", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
