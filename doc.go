// Package policyqa answers climate-policy questions from a pre-ingested corpus of national
// laws and adaptation plans stored in Redis or Valkey.
//
// A question is embedded, the nearest documents are retrieved (optionally restricted to one
// country) and a generative model is asked to answer from that context:
//
//	client, err := policyqa.New(ctx,
//	    policyqa.WithRedis("localhost:6379", ""),
//	    policyqa.WithEmbedding("http://localhost:8000/v1", "", "sentence-transformers/all-MiniLM-L6-v2", 384),
//	    policyqa.WithGemini(os.Getenv("GEMINI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	ans, err := client.Ask(ctx, "What are Kenya's climate laws?", "Kenya", 5)
//	if err != nil {
//	    // retrieval failed, nothing to show
//	}
//	if ans.GenerationError != nil {
//	    // context is still in ans.Sources
//	}
//
// Retrieve and Synthesize expose the two stages separately.
package policyqa
