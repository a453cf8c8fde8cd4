package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	domainPost "labsite/internal/domain/post"
	"labsite/internal/infra/content"
	usecasePost "labsite/internal/usecase/post"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	postsPath        string
	repoMetadataPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "contentctl",
		Short: "Inspect and publish lab site content",
		Long: `Validate the posts and repository metadata files, run the same
queries the API serves without starting it, and import posts into PostgreSQL.

Files default to the copies embedded in the binary.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.postsPath, "posts", "", "posts YAML file (default: embedded)")
	cmd.PersistentFlags().StringVar(&opts.repoMetadataPath, "repo-metadata", "", "repository metadata YAML file (default: embedded)")

	cmd.AddCommand(
		newValidateCmd(opts),
		newPostsCmd(opts),
		newFacetsCmd(opts),
		newImportCmd(opts),
		newHashCodeCmd(),
	)
	return cmd
}

// loadPosts reads the posts file and builds the query service over it.
func (o *rootOptions) loadPosts(ctx context.Context) ([]*domainPost.Post, *usecasePost.Service, error) {
	posts, err := content.LoadPosts(o.postsPath)
	if err != nil {
		return nil, nil, err
	}
	svc, err := usecasePost.NewService(ctx, content.NewStaticPostSource(posts), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid posts: %w", err)
	}
	return posts, svc, nil
}
