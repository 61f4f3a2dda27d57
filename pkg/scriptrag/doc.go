// Package scriptrag provides an embedded Go client for the scriptrag hybrid
// retrieval engine, backed by Redis with the search module.
//
// The client wires the full pipeline in-process: sentence-based chunking,
// batched embedding, HNSW vector search, and keyword-fused ranking. An
// embedding provider is required for any text operation; answer generation
// additionally needs a chat generator.
//
//	client, err := scriptrag.New(ctx,
//	    scriptrag.WithRedis("localhost:6379", ""),
//	    scriptrag.WithEmbedder(myEmbedder),
//	    scriptrag.WithLexicon("程聿怀"),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	stats, _ := client.Ingest(ctx, "screenplay", text)
//	passages, _ := client.Retrieve(ctx, "程聿怀在第几场出现", 5)
package scriptrag
