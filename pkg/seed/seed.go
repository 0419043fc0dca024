package seed

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"library-app/pkg/books"
	"library-app/pkg/models"
	"library-app/pkg/users"
)

// Catalogue is the initial book data loaded into an empty database.
var Catalogue = []books.CreateParams{
	{
		Title:       "Accomplice to the Villain",
		Authors:     []string{"Hannah Nicole Maehrer"},
		Category:    models.CategoryAdult,
		Genres:      []string{"Fantasy", "Romance", "Fiction", "Magic"},
		Pages:       482,
		Description: "Once Upon a Time meets The Office in this laugh-out-loud novel about the sunshine assistant to an Evil Villain, and their unexpected romance. As a third-generation villain's assistant, Evie Sage's life is fine: she works for the most irresistible evil boss in the history of the world and only occasionally has to duck out of the way of some magical menace.",
		ImageFile:   "cover1.jpg",
		Copies:      2,
		Available:   2,
	},
	{
		Title:       "Atomic Habits: An Easy & Proven Way to Build Good Habits & Break Bad Ones",
		Authors:     []string{"James Clear"},
		Category:    models.CategoryAdult,
		Genres:      []string{"Nonfiction", "Self Help", "Psychology", "Personal Development", "Productivity", "Business"},
		Pages:       319,
		Description: "No matter your goals, Atomic Habits offers a proven framework for improving every day. James Clear reveals practical strategies that will teach you exactly how to form good habits, break bad ones, and master the tiny behaviors that lead to remarkable results.",
		ImageFile:   "cover2.jpg",
		Copies:      3,
		Available:   3,
	},
	{
		Title:       "Borders",
		Authors:     []string{"Thomas King", "Natasha Donovan (Illustrator)"},
		Category:    models.CategoryTeens,
		Genres:      []string{"Graphic Novels", "Indigenous", "Fiction", "Comics"},
		Pages:       192,
		Description: "A powerful graphic novel about a boy and his mother whose refusal to identify as either American or Canadian first leaves them stranded at the border, then makes them heroes.",
		ImageFile:   "cover3.jpg",
		Copies:      1,
		Available:   1,
	},
	{
		Title:       "The Door of No Return",
		Authors:     []string{"Kwame Alexander"},
		Category:    models.CategoryTeens,
		Genres:      []string{"Historical Fiction", "Poetry", "Fiction"},
		Pages:       432,
		Description: "Dreams are today's answers for tomorrow's questions. Eleven-year-old Kofi Offin dreams of water, of its velvet sheen and the people he loves, until a tragic event wrenches him from everything he has ever known.",
		ImageFile:   "cover4.jpg",
		Copies:      2,
		Available:   2,
	},
}

type seedUser struct {
	Email    string
	Password string
	Name     string
	Role     string
}

var seedUsers = []seedUser{
	{Email: "admin@lib.sg", Password: "12345", Name: "Admin", Role: models.RoleAdmin},
	{Email: "poh@lib.sg", Password: "12345", Name: "Peter Oh", Role: models.RoleMember},
}

// Run populates an empty catalogue and makes sure the stock accounts
// exist. It is idempotent and safe to run on every startup.
func Run(db *gorm.DB) error {
	bookStore := books.NewStore(db)
	userStore := users.NewStore(db)

	var bookCount int64
	if err := db.Model(&models.Book{}).Count(&bookCount).Error; err != nil {
		return err
	}
	if bookCount == 0 {
		log.Println("Book catalogue is empty, seeding initial data...")
		for _, params := range Catalogue {
			if _, err := bookStore.Create(params); err != nil {
				log.Printf("Failed to seed book %q: %v", params.Title, err)
			}
		}
		log.Printf("Seeded %d books", len(Catalogue))
	}

	for _, su := range seedUsers {
		_, err := userStore.FindByEmail(su.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, users.ErrNotFound) {
			return err
		}
		log.Printf("Seeding user: %s", su.Email)
		user, err := userStore.Register(su.Email, su.Password, su.Name)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", su.Email, err)
			continue
		}
		if su.Role == models.RoleAdmin {
			if _, err := userStore.Promote(user.Email); err != nil {
				log.Printf("Failed to promote seed user %s: %v", su.Email, err)
			}
		}
	}
	return nil
}
