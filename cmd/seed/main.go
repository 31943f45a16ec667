// Command seed populates the database with demo data and, when requested,
// backfills the menu item embeddings used for semantic search.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/jaswdr/faker"
	"github.com/jinzhu/gorm"
	"github.com/tmc/langchaingo/llms/openai"

	"qrmenu/internal/config"
	"qrmenu/internal/database"
	"qrmenu/internal/models"
	"qrmenu/internal/storage"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	itemCount  = flag.Int("items", 24, "Number of demo menu items to create")
	tableCount = flag.Int("tables", 12, "Number of table codes to create")
	embeddings = flag.Bool("embeddings", false, "Backfill menu item embeddings")
)

var fake = faker.New()

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(cfg.Database.Dialect, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if *embeddings {
		if cfg.OpenAI.APIKey == "" {
			log.Fatal("OPENAI_API_KEY is required for -embeddings")
		}
		if err := backfillEmbeddings(cfg, db); err != nil {
			log.Fatalf("Failed to backfill embeddings: %v", err)
		}
		return
	}

	if err := seedDemoData(db); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
	log.Printf("Seeded %d menu items and %d table codes", *itemCount, *tableCount)
}

var demoDishes = []string{
	"Margherita Pizza", "Pepperoni Pizza", "Spaghetti Carbonara", "Lasagna",
	"Caesar Salad", "Greek Salad", "Grilled Salmon", "BBQ Ribs",
	"Classic Cheeseburger", "Veggie Burger", "Pad Thai", "Green Curry",
	"Chicken Tikka Masala", "Falafel Plate", "Ramen", "Sushi Roll",
	"Tacos", "Burrito", "Moussaka", "Ratatouille",
	"Tiramisu", "Baklava", "Apple Pie", "Crème Brûlée",
}

func seedDemoData(db *gorm.DB) error {
	slots := []models.Slot{
		{Name: "breakfast", Start: "07:00", End: "11:00"},
		{Name: "lunch", Start: "11:00", End: "16:00"},
		{Name: "dinner", Start: "18:00", End: "23:00"},
		{Name: "late night", Start: "22:00", End: "02:00"},
	}
	for i := range slots {
		if err := db.Create(&slots[i]).Error; err != nil {
			return fmt.Errorf("create slot: %w", err)
		}
	}

	one, two, three := 1, 2, 3
	categories := []models.Category{
		{Name: "Starters", SortOrder: &one, Slots: []models.Slot{slots[1], slots[2]}},
		{Name: "Mains", SortOrder: &two, Slots: []models.Slot{slots[1], slots[2]}},
		{Name: "Breakfast", SortOrder: &three, Slots: []models.Slot{slots[0]}},
		{Name: "Desserts", Slots: []models.Slot{slots[1], slots[2], slots[3]}},
		{Name: "Sides", Complementary: true},
	}
	for i := range categories {
		if err := db.Create(&categories[i]).Error; err != nil {
			return fmt.Errorf("create category: %w", err)
		}
	}

	allergens := make([]models.Allergen, 0)
	for _, name := range []string{"milk", "eggs", "wheat", "soy", "fish", "peanuts"} {
		allergen := models.Allergen{Name: name}
		if err := db.Create(&allergen).Error; err != nil {
			return fmt.Errorf("create allergen: %w", err)
		}
		allergens = append(allergens, allergen)
	}

	dietTags := make([]models.DietTag, 0)
	for _, name := range []string{"vegetarian", "vegan", "gluten-free", "halal"} {
		tag := models.DietTag{Name: name}
		if err := db.Create(&tag).Error; err != nil {
			return fmt.Errorf("create diet tag: %w", err)
		}
		dietTags = append(dietTags, tag)
	}

	for i := 0; i < *itemCount; i++ {
		name := demoDishes[i%len(demoDishes)]
		item := models.MenuItem{
			ID:          fake.UUID().V4(),
			Name:        name,
			Description: fake.Lorem().Sentence(10),
			Price:       fake.Float64(2, 5, 40),
			Available:   true,
			Recommended: rand.Intn(5) == 0,
			Categories:  []models.Category{categories[rand.Intn(len(categories))]},
		}
		if rand.Intn(2) == 0 {
			item.Allergens = []models.Allergen{allergens[rand.Intn(len(allergens))]}
		}
		if rand.Intn(3) == 0 {
			item.DietTags = []models.DietTag{dietTags[rand.Intn(len(dietTags))]}
		}
		if err := db.Create(&item).Error; err != nil {
			return fmt.Errorf("create menu item: %w", err)
		}

		modifier := models.Modifier{
			ID:          fake.UUID().V4(),
			MenuItemID:  item.ID,
			Name:        "Extras",
			MultiSelect: true,
		}
		if err := db.Create(&modifier).Error; err != nil {
			return fmt.Errorf("create modifier: %w", err)
		}
		for _, extra := range []struct {
			name  string
			price float64
		}{
			{"extra cheese", 1.50},
			{"large portion", 3.00},
		} {
			option := models.ModifierOption{
				ID:         fake.UUID().V4(),
				ModifierID: modifier.ID,
				Name:       extra.name,
				ExtraPrice: extra.price,
			}
			if err := db.Create(&option).Error; err != nil {
				return fmt.Errorf("create modifier option: %w", err)
			}
		}
	}

	for i := 1; i <= *tableCount; i++ {
		code := models.TableCode{
			Code:        fake.RandomStringWithLength(8),
			TableNumber: i,
			Active:      true,
		}
		if err := db.Create(&code).Error; err != nil {
			return fmt.Errorf("create table code: %w", err)
		}
		log.Printf("table %d -> code %s", code.TableNumber, code.Code)
	}

	return nil
}

func backfillEmbeddings(cfg *config.Config, db *gorm.DB) error {
	llm, err := openai.New(
		openai.WithToken(cfg.OpenAI.APIKey),
		openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
	)
	if err != nil {
		return fmt.Errorf("initialize embedding client: %w", err)
	}

	menuRepo := storage.NewMenuRepo(db)
	chatRepo := storage.NewChatRepo(db)

	items, err := menuRepo.ListItems()
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, item := range items {
		text := item.Name
		if item.Description != "" {
			text += ": " + item.Description
		}
		vectors, err := llm.CreateEmbedding(ctx, []string{text})
		if err != nil {
			return fmt.Errorf("embed %s: %w", item.ID, err)
		}
		if len(vectors) == 0 {
			continue
		}
		encoded, err := json.Marshal(vectors[0])
		if err != nil {
			return fmt.Errorf("encode embedding for %s: %w", item.ID, err)
		}
		if err := chatRepo.SaveEmbedding(&models.MenuItemEmbedding{
			MenuItemID: item.ID,
			Vector:     string(encoded),
			ModelName:  cfg.OpenAI.EmbeddingModel,
			Dimensions: len(vectors[0]),
		}); err != nil {
			return err
		}
		log.Printf("embedded %s (%s)", item.Name, item.ID)
	}
	return nil
}
