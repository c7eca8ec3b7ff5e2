// Package petmatch embeds the petmatch pipeline in a Go program: extract a
// trait profile from reference photos with a vision model, then search the
// Petfinder directory near a location, dropping the least important traits
// until something turns up.
//
//	client, err := petmatch.New(ctx,
//	    petmatch.WithPetfinder(os.Getenv("PETFINDER_KEY"), os.Getenv("PETFINDER_SECRET")),
//	    petmatch.WithGemini(os.Getenv("GEMINI_KEY"), "gemini-1.5-flash"),
//	)
//	res, err := client.Match(ctx, petmatch.MatchRequest{
//	    Images:   []string{"https://example.com/my-dog.jpg"},
//	    Location: petmatch.Location{Lat: 40.71, Lng: -74.00},
//	})
//	if res.Found {
//	    fmt.Println(res.Listings[0].Name, res.Removed)
//	}
//
// No match is not an error: Found is false and Attempts records every
// search that was tried.
package petmatch
