package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ersonp/roots-core/internal/application/handlers"
)

type mediaFlags struct {
	mediaType string
	caption   string
	date      string
	sourceID  string
	people    []string
	events    []string
}

func (f *mediaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mediaType, "type", "photo", "Media type (photo, document, audio, video)")
	cmd.Flags().StringVar(&f.caption, "caption", "", "Caption")
	cmd.Flags().StringVar(&f.date, "date", "", "Date (YYYY-MM-DD, YYYY-MM or YYYY)")
	cmd.Flags().StringVar(&f.sourceID, "source", "", "Source the media comes from")
	cmd.Flags().StringSliceVar(&f.people, "person", nil, "Person to link (repeatable)")
	cmd.Flags().StringSliceVar(&f.events, "event", nil, "Event to link (repeatable)")
}

func newMediaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage photos, documents and recordings",
	}

	cmd.AddCommand(
		newMediaAddCmd(),
		newMediaUploadCmd(),
		newMediaUpdateCmd(),
		newMediaDeleteCmd(),
		newMediaListCmd(),
		newMediaShowCmd(),
		newMediaDownloadCmd(),
		newMediaLinkCmd("link", "Attach media to a person or event"),
		newMediaLinkCmd("unlink", "Detach media from a person or event"),
	)

	return cmd
}

func newMediaAddCmd() *cobra.Command {
	var flags mediaFlags

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Record media stored elsewhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				media, err := d.Media.HandleCreate(cmd.Context(), handlers.CreateMediaRequest{
					Type:      flags.mediaType,
					URL:       args[0],
					Caption:   flags.caption,
					Date:      flags.date,
					SourceID:  flags.sourceID,
					PersonIDs: flags.people,
					EventIDs:  flags.events,
				})
				if err != nil {
					return fmt.Errorf("adding media: %w", err)
				}
				fmt.Printf("Added media: %s\n", media.ID)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newMediaUploadCmd() *cobra.Command {
	var flags mediaFlags

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file to the configured media store",
		Long: `Uploads a file and records it. Requires media.backend to be set in
the config.

Examples:
  roots media upload census-1921.pdf --type document --person 3f2a...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMediaUpload(cmd, args[0], flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runMediaUpload(cmd *cobra.Command, path string, flags mediaFlags) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("reading file info: %w", err)
	}

	name := filepath.Base(path)
	return withDeps(cmd.Context(), func(d *Deps) error {
		media, err := d.Media.HandleUpload(cmd.Context(), handlers.UploadMediaRequest{
			Type:        flags.mediaType,
			Filename:    name,
			ContentType: mime.TypeByExtension(filepath.Ext(name)),
			Size:        info.Size(),
			Body:        file,
			Caption:     flags.caption,
			Date:        flags.date,
			SourceID:    flags.sourceID,
			PersonIDs:   flags.people,
			EventIDs:    flags.events,
		})
		if err != nil {
			return fmt.Errorf("uploading media: %w", err)
		}
		fmt.Printf("Uploaded media: %s\n", media.ID)
		fmt.Printf("  URL: %s\n", media.URL)
		return nil
	})
}

func newMediaUpdateCmd() *cobra.Command {
	var (
		url   string
		flags mediaFlags
	)

	cmd := &cobra.Command{
		Use:   "update <media-id>",
		Short: "Update a media record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			var req handlers.UpdateMediaRequest
			if changed("url") {
				req.URL = &url
			}
			if changed("caption") {
				req.Caption = &flags.caption
			}
			if changed("date") {
				req.Date = &flags.date
			}
			if changed("source") {
				req.SourceID = &flags.sourceID
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				media, err := d.Media.HandleUpdate(cmd.Context(), args[0], req)
				if err != nil {
					return fmt.Errorf("updating media: %w", err)
				}
				fmt.Printf("Updated media: %s\n", media.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "URL")
	cmd.Flags().StringVar(&flags.caption, "caption", "", "Caption")
	cmd.Flags().StringVar(&flags.date, "date", "", "Date (empty clears)")
	cmd.Flags().StringVar(&flags.sourceID, "source", "", "Source ID (empty clears)")

	return cmd
}

func newMediaDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <media-id>",
		Short: "Delete a media record and its stored content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				if err := d.Media.HandleDelete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("deleting media: %w", err)
				}
				fmt.Printf("Deleted media: %s\n", args[0])
				return nil
			})
		},
	}
}

func newMediaListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <person-id>",
		Short: "List media linked to a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				media, err := d.Media.HandleList(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("listing media: %w", err)
				}

				if len(media) == 0 {
					fmt.Println("No media found.")
					return nil
				}

				for _, m := range media {
					fmt.Printf("%s  [%s] %s\n", m.ID, m.Type, m.URL)
					if m.Caption != "" {
						fmt.Printf("  %s\n", m.Caption)
					}
				}
				return nil
			})
		},
	}
}

func newMediaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <media-id>",
		Short: "Show a media record and what it is linked to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				media, err := d.Media.HandleGet(ctx, args[0])
				if err != nil {
					return fmt.Errorf("getting media: %w", err)
				}
				links, err := d.Media.HandleLinks(ctx, args[0])
				if err != nil {
					return fmt.Errorf("listing links: %w", err)
				}

				fmt.Printf("ID: %s\n", media.ID)
				fmt.Printf("  Type: %s\n", media.Type)
				fmt.Printf("  URL:  %s\n", media.URL)
				if media.Caption != "" {
					fmt.Printf("  Caption: %s\n", media.Caption)
				}
				if media.Date != nil {
					fmt.Printf("  Date: %s\n", formatDate(media.Date))
				}
				if media.SourceID != "" {
					fmt.Printf("  Source: %s\n", media.SourceID)
				}
				for _, l := range links {
					fmt.Printf("  Linked %s: %s\n", l.SubjectKind, l.SubjectID)
				}
				return nil
			})
		},
	}
}

func newMediaDownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <media-id>",
		Short: "Write uploaded media content to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				body, media, err := d.Media.HandleOpen(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("opening media: %w", err)
				}
				defer body.Close()

				path := output
				if path == "" {
					path = filepath.Base(media.BlobKey)
				}
				return writeFile(path, body)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: original file name)")

	return cmd
}

func writeFile(path string, r io.Reader) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	n, err := io.Copy(f, r)
	if err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", n, path)
	return nil
}

func newMediaLinkCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <media-id> <person|event> <subject-id>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := handlers.LinkMediaRequest{MediaID: args[0], SubjectKind: args[1], SubjectID: args[2]}
			return withDeps(cmd.Context(), func(d *Deps) error {
				var err error
				if use == "link" {
					err = d.Media.HandleLink(cmd.Context(), req)
				} else {
					err = d.Media.HandleUnlink(cmd.Context(), req)
				}
				if err != nil {
					return fmt.Errorf("%s media: %w", use, err)
				}
				fmt.Printf("%sed %s %s %s\n", capitalize(use), args[0], args[1], args[2])
				return nil
			})
		},
	}
}
