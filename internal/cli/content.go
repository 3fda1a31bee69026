package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (a *app) postsCmd() *cobra.Command {
	var (
		page   int
		limit  int
		search string
		tags   []string
	)
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List blog posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			posts, err := a.client.Posts(ctx, page, limit, search, tags)
			return a.emit(ctx, "Blog", posts, err)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "posts per page")
	cmd.Flags().StringVar(&search, "search", "", "full text filter")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag slug filter, repeatable")
	return cmd
}

func (a *app) postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <slug>",
		Short: "Show one blog post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			post, err := a.client.Post(ctx, args[0])
			return a.emit(ctx, "Blog", post, err)
		},
	}
}

func (a *app) featuredCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "featured",
		Short: "List featured blog posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			posts, err := a.client.FeaturedPosts(ctx, limit)
			return a.emit(ctx, "Blog", posts, err)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 3, "number of posts")
	return cmd
}

func (a *app) tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List blog tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tags, err := a.client.Tags(ctx)
			return a.emit(ctx, "Blog", tags, err)
		},
	}
}

func (a *app) relatedCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "related <slug>",
		Short: "List posts related to a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			posts, err := a.client.RelatedPosts(ctx, args[0], limit)
			return a.emit(ctx, "Blog", posts, err)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 3, "number of posts")
	return cmd
}

func (a *app) productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			products, err := a.client.Products(ctx)
			return a.emit(ctx, "Products", products, err)
		},
	}
}

func (a *app) productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <slug>",
		Short: "Show one product by slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			product, err := a.client.Product(ctx, args[0])
			return a.emit(ctx, "Products", product, err)
		},
	}
}

func (a *app) productIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product-id <id>",
		Short: "Show one product by numeric ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			ctx := cmd.Context()
			product, err := a.client.ProductByID(ctx, id)
			return a.emit(ctx, "Products", product, err)
		},
	}
}

func (a *app) teamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "team",
		Short: "List team members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			members, err := a.client.TeamMembers(ctx)
			return a.emit(ctx, "Team", members, err)
		},
	}
}

func (a *app) caseStudiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "case-studies",
		Short: "List case studies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			studies, err := a.client.CaseStudies(ctx)
			return a.emit(ctx, "Case Studies", studies, err)
		},
	}
}
