package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	domainPost "labsite/internal/domain/post"
	"labsite/internal/infra/content"
	"labsite/internal/pkg/collection"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check posts and repository metadata",
		Long:  "Parse both content files and report problems such as missing titles, bad statuses or duplicate slugs.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := opts.loadPosts(cmd.Context())
			if err != nil {
				return err
			}
			metadata, err := content.LoadRepoMetadata(opts.repoMetadataPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d posts, %d repository annotations\n", svc.Count(), len(metadata))
			return nil
		},
	}
}

type postsFlags struct {
	status   string
	category string
	tag      string
	featured string
	search   string
	limit    int
	offset   int
}

func (f postsFlags) query() (domainPost.ListQuery, error) {
	q := domainPost.ListQuery{
		Status:   optionalString(f.status),
		Category: optionalString(f.category),
		Tag:      optionalString(f.tag),
		Search:   optionalString(f.search),
		Page:     collection.Page{Offset: f.offset},
	}
	if v, ok := q.Status.Get(); ok && strings.EqualFold(v, "all") {
		q.Status = collection.None[string]()
	}
	switch strings.ToLower(f.featured) {
	case "":
	case "true":
		q.Featured = collection.Some(true)
	case "false":
		q.Featured = collection.Some(false)
	default:
		return q, fmt.Errorf("--featured must be true or false")
	}
	if f.offset < 0 {
		return q, fmt.Errorf("--offset must be >= 0")
	}
	if f.limit >= 0 {
		q.Page.Limit = collection.Some(f.limit)
	}
	return q, nil
}

func newPostsCmd(opts *rootOptions) *cobra.Command {
	var f postsFlags
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts the way GET /posts does",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := f.query()
			if err != nil {
				return err
			}
			_, svc, err := opts.loadPosts(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.List(cmd.Context(), query)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PUBLISHED\tSLUG\tSTATUS\tCATEGORY\tTITLE")
			for _, p := range result.Posts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.PublishedAt, p.Slug, p.Status, p.Category, p.Title)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d posts\n", len(result.Posts), result.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.status, "status", "", "draft, published, archived or all")
	cmd.Flags().StringVar(&f.category, "category", "", "exact category")
	cmd.Flags().StringVar(&f.tag, "tag", "", "tag the post must carry")
	cmd.Flags().StringVar(&f.featured, "featured", "", "true or false")
	cmd.Flags().StringVarP(&f.search, "query", "q", "", "free text search")
	cmd.Flags().IntVar(&f.limit, "limit", -1, "page size (negative for all)")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "records to skip")
	return cmd
}

func newFacetsCmd(opts *rootOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Count posts per category and tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := opts.loadPosts(cmd.Context())
			if err != nil {
				return err
			}
			want := optionalString(status)
			if v, ok := want.Get(); ok && strings.EqualFold(v, "all") {
				want = collection.None[string]()
			}
			facets := svc.Facets(cmd.Context(), want)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tPOSTS")
			for _, c := range facets.Categories {
				fmt.Fprintf(w, "category\t%s\t%d\n", c.Name, c.Count)
			}
			for _, t := range facets.Tags {
				fmt.Fprintf(w, "tag\t%s\t%d\n", t.Name, t.Count)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only count posts with this status")
	return cmd
}

func optionalString(v string) collection.Optional[string] {
	v = strings.TrimSpace(v)
	if v == "" {
		return collection.None[string]()
	}
	return collection.Some(v)
}
