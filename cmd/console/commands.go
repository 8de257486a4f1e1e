package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/console-conteudo/backend/internal/document"
	"github.com/console-conteudo/backend/internal/submission"
)

// app carries what the commands share; tests inject client options.
type app struct {
	v          *viper.Viper
	clientOpts []submission.Option
}

func (a *app) client() *submission.Client {
	return submission.NewClient(a.v.GetString("api_url"), a.clientOpts...)
}

func newRootCmd(clientOpts ...submission.Option) *cobra.Command {
	a := &app{v: viper.New(), clientOpts: clientOpts}

	root := &cobra.Command{
		Use:           "console",
		Short:         "Submit and browse content in the content console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("api-url", submission.DefaultBaseURL, "backend base URL (env API_URL)")
	_ = a.v.BindPFlag("api_url", root.PersistentFlags().Lookup("api-url"))
	_ = a.v.BindEnv("api_url", "API_URL")

	root.AddCommand(a.submitCmd(), a.listCmd(), a.pingCmd())
	return root
}

func (a *app) submitCmd() *cobra.Command {
	var hold time.Duration
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one document to a collection",
	}
	cmd.PersistentFlags().DurationVar(&hold, "hold", 0, "how long the success message stays before the form is cleared")

	run := func(form submission.Form) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctrl := submission.NewController(a.client(), terminalFeedback{out: cmd.OutOrStdout()},
				submission.WithResetDelay(hold))
			if _, err := ctrl.Process(cmd.Context(), form); err != nil {
				return reportedError{err}
			}
			return nil
		}
	}

	article := &submission.ArticleForm{}
	artigo := &cobra.Command{Use: "artigo", Short: "Submit an article (Artigos)", Args: cobra.NoArgs, RunE: run(article)}
	artigo.Flags().StringVar(&article.Title, "title", "", "article title")
	artigo.Flags().StringVar(&article.Content, "content", "", "article body")
	artigo.Flags().StringVar(&article.Category, "category", "", "category name")
	artigo.Flags().StringVar(&article.CategoryID, "category-id", "", "category id")
	artigo.Flags().StringVar(&article.Keywords, "keywords", "", "comma separated keywords")

	news := &submission.NewsForm{}
	velonews := &cobra.Command{Use: "velonews", Short: "Submit a news item (Velonews)", Args: cobra.NoArgs, RunE: run(news)}
	velonews.Flags().StringVar(&news.Title, "title", "", "headline")
	velonews.Flags().StringVar(&news.Content, "content", "", "news body")
	velonews.Flags().BoolVar(&news.Critical, "critical", false, "flag the item as critical")

	question := &submission.BotQuestionForm{}
	bot := &cobra.Command{Use: "bot", Short: "Submit a bot question (Bot_perguntas)", Args: cobra.NoArgs, RunE: run(question)}
	bot.Flags().StringVar(&question.Topic, "topic", "", "question topic")
	bot.Flags().StringVar(&question.Context, "context", "", "context for the answer")
	bot.Flags().StringVar(&question.Keywords, "keywords", "", "keywords")
	bot.Flags().StringVar(&question.Question, "question", "", "the question")
	bot.Flags().StringVar(&question.ImageURLs, "image-urls", "", "image URLs")

	cmd.AddCommand(artigo, velonews, bot)
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List the newest documents of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !document.ValidCollection(args[0]) {
				return fmt.Errorf("invalid collection %q, expected one of %v", args[0], document.Collections())
			}
			res, err := a.client().Recent(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list %s: %w", args[0], err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res.Data)
			}
			cmd.Println(successStyle.Render(fmt.Sprintf("%d document(s) in %s", res.Count, args[0])))
			for _, d := range res.Data {
				cmd.Printf("%v  %v  %s\n", d[document.FieldID], d[document.FieldCreatedAt], summary(d))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client().Ping(cmd.Context())
			if err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			cmd.Println(successStyle.Render(fmt.Sprintf("%s (version %s)", res.Message, res.Version)))
			return nil
		},
	}
}

// reportedError has already been shown to the user by the feedback printer.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// summary picks the first descriptive field a document carries.
func summary(d map[string]interface{}) string {
	for _, k := range []string{"title", "question", "topic"} {
		if s, ok := d[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
