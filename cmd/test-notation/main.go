package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Conceptual-Machines/magda-lilypond-go/agents/notation"
	"github.com/Conceptual-Machines/magda-lilypond-go/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: Could not load .env file: %v", err)
		log.Println("   Continuing with environment variables...")
	}

	cfg, err := config.Load(os.Getenv("LYPARSE_CONFIG"))
	if err != nil {
		log.Fatalf("❌ ERROR: %v", err)
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("❌ ERROR: OPENAI_API_KEY is not set in environment!")
	}

	agent := notation.NewNotationAgent(cfg)

	testRequests := []string{
		"a C major scale in quarter notes, one octave up and back",
		"a four bar waltz melody in G major",
		"a I-IV-V-I progression in D as half note chords",
	}

	ctx := context.Background()

	for i, request := range testRequests {
		fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Printf("Test %d/%d: %s\n", i+1, len(testRequests), request)
		fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

		startTime := time.Now()

		result, err := agent.Generate(ctx, cfg.DefaultModel, request)
		if err != nil {
			log.Printf("❌ Error: %v", err)
			continue
		}

		fmt.Printf("✅ Success! Duration: %v, attempts: %d\n\n", time.Since(startTime), result.Attempts)
		fmt.Printf("%s\n\n", result.Source)

		for j, staff := range result.Score.Staves {
			fmt.Printf("  Staff %d: %d notes, %d measures\n", j+1, len(staff.Notes), len(staff.Measures))
		}

		usageJSON, _ := json.MarshalIndent(result.Usage, "", "  ")
		fmt.Printf("\nUsage:\n  %s\n", string(usageJSON))

		if i < len(testRequests)-1 {
			time.Sleep(1 * time.Second)
		}
	}

	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("✅ All tests completed!\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
}
