package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"

	"library-app/pkg/books"
	"library-app/pkg/database"
	"library-app/pkg/seed"
	"library-app/pkg/users"
)

func main() {
	root := &cobra.Command{
		Use:          "libctl",
		Short:        "Administrative tooling for the library service",
		SilenceUsage: true,
	}
	root.AddCommand(seedCmd(), createAdminCmd(), addBookCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func connect() (*gorm.DB, error) {
	return database.Connect()
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the initial catalogue and stock accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			return seed.Run(db)
		},
	}
}

// readPassword reads a password from the terminal without echo.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func createAdminCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create (or promote) an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			store := users.NewStore(db)

			if _, err := store.FindByEmail(email); err == nil {
				user, err := store.Promote(email)
				if err != nil {
					return err
				}
				fmt.Printf("Promoted existing user %s to %s\n", user.Email, user.Role)
				return nil
			}

			password, err := readPassword("Password for " + email + ": ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}

			user, err := store.Register(email, password, name)
			if err != nil {
				return err
			}
			if _, err := store.Promote(user.Email); err != nil {
				return err
			}
			fmt.Printf("Created administrator %s\n", user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address of the administrator")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")
	return cmd
}

func addBookCmd() *cobra.Command {
	var params books.CreateParams

	cmd := &cobra.Command{
		Use:   "add-book",
		Short: "Add a book to the catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("available") {
				params.Available = params.Copies
			}
			book, err := books.NewStore(db).Create(params)
			if err != nil {
				return err
			}
			fmt.Printf("Added book %q (%s)\n", book.Title, book.BookUid)
			return nil
		},
	}
	cmd.Flags().StringVar(&params.Title, "title", "", "book title")
	cmd.Flags().StringSliceVar(&params.Authors, "author", nil, "author, repeatable")
	cmd.Flags().StringVar(&params.Category, "category", "", "category (Children, Teens or Adult)")
	cmd.Flags().StringSliceVar(&params.Genres, "genre", nil, "genre, repeatable")
	cmd.Flags().IntVar(&params.Pages, "pages", 0, "page count")
	cmd.Flags().StringVar(&params.Description, "description", "", "description text")
	cmd.Flags().StringVar(&params.ImageFile, "image", "", "cover image filename")
	cmd.Flags().StringVar(&params.ISBN, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&params.Publisher, "publisher", "", "publisher")
	cmd.Flags().IntVar(&params.PublicationYear, "year", 0, "publication year")
	cmd.Flags().IntVar(&params.Copies, "copies", 1, "total copies owned")
	cmd.Flags().IntVar(&params.Available, "available", 0, "copies available (defaults to copies)")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("author")
	cmd.MarkFlagRequired("category")
	return cmd
}
