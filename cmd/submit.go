package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"editorial_composer/internal/cms"
	"editorial_composer/internal/editor"
	"editorial_composer/internal/model"
	"editorial_composer/internal/repository"
	"editorial_composer/internal/service"
	"editorial_composer/internal/workflow"
	"editorial_composer/pkg/database"
	"editorial_composer/pkg/logger"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	submitDaily   string
	submitVerbose bool
)

// draftFile is the on-disk shape of an editorial:
//
//	title: Daily Brief
//	date: 2024-05-01
//	paragraphs:
//	  - Line one.
//	questions:
//	  - statement: Which line is first?
//	    options: [Line one., Line two.]
//	    answer: Line one.
type draftFile struct {
	Title      string   `yaml:"title"`
	Date       string   `yaml:"date"`
	Paragraphs []string `yaml:"paragraphs"`
	Questions  []struct {
		Statement string   `yaml:"statement"`
		Options   []string `yaml:"options"`
		Answer    string   `yaml:"answer"`
	} `yaml:"questions"`
}

func (d draftFile) content() model.ContentItem {
	item := model.ContentItem{
		Title:     d.Title,
		Paragraph: d.Paragraphs,
		Questions: []model.Question{},
		Date:      d.Date,
	}
	for _, q := range d.Questions {
		mq := model.Question{Statement: q.Statement, CorrectAnswer: q.Answer, Options: []model.Option{}}
		for _, o := range q.Options {
			mq.Options = append(mq.Options, model.Option{Statement: o})
		}
		item.Questions = append(item.Questions, mq)
	}
	return item
}

func readDraftFile(r io.Reader) (editor.Form, error) {
	var d draftFile
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return editor.Form{}, fmt.Errorf("parse draft: %w", err)
	}
	return editor.FormFromContent(d.content()), nil
}

var submitCmd = &cobra.Command{
	Use:   "submit [draft.yaml]",
	Short: "Post an editorial from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if submitVerbose {
			logger.InitLogger(cfg)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		form, err := readDraftFile(f)
		if err != nil {
			return err
		}

		db, err := database.InitDB(&cfg.Database, "release")
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		svc := service.NewEditorService(
			repository.NewMemoryDraftRepository(),
			repository.NewSubmissionRepository(db),
			cms.NewClient(cfg.CMS),
		)
		return runSubmit(cmd.Context(), cmd.OutOrStdout(), svc, form, submitDaily)
	},
}

var errSubmitFailed = errors.New("submission failed")

// runSubmit drives one draft through the workflow and reports each step.
// A non-empty daily date also assigns the created editorial to that day.
func runSubmit(ctx context.Context, out io.Writer, svc *service.EditorService, form editor.Form, daily string) error {
	draft, err := svc.CreateDraftFrom(ctx, form)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "📤 Submitting '%s' (%s)\n", draft.Form.Title, draft.Form.Date)
	draft, err = svc.Submit(ctx, draft.ID)
	if err != nil {
		fmt.Fprintln(out, "❌", err)
		return errSubmitFailed
	}

	wf := draft.Workflow
	if wf.Failure == workflow.FailureMissingIdentifier {
		// The editorial exists but cannot be referenced, so no daily post.
		fmt.Fprintln(out, "⚠️", wf.Message)
		return errSubmitFailed
	}
	if wf.Status != workflow.StatusSuccess {
		fmt.Fprintln(out, "❌", wf.Message)
		return errSubmitFailed
	}
	fmt.Fprintln(out, "✅", wf.Message)

	if daily == "" {
		return nil
	}

	if _, err := svc.SetDailyDate(ctx, draft.ID, daily); err != nil {
		return err
	}
	draft, err = svc.ConfirmDaily(ctx, draft.ID)
	if err != nil {
		return err
	}
	if n := draft.Workflow.Notice; n != nil && n.Level == workflow.NoticeError {
		fmt.Fprintln(out, "❌", n.Message)
		return errSubmitFailed
	}
	fmt.Fprintf(out, "📅 Added to daily editorial for %s\n", daily)
	return nil
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&submitDaily, "daily", "d", "", "Also assign the editorial to this daily date (YYYY-MM-DD)")
	submitCmd.Flags().BoolVarP(&submitVerbose, "verbose", "v", false, "Log CMS calls to the console and log file")
}
