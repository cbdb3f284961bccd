// Package polysearch embeds the cross-lingual document search pipeline in a Go program,
// without running the HTTP service.
//
// Documents are extracted, embedded with a multilingual model and stored in a vector
// index. Queries in any language are translated into the canonical language, embedded
// with the same model and answered by nearest-neighbour search.
//
//	client, err := polysearch.New(ctx,
//	    polysearch.WithQdrant("localhost", 6334, ""),
//	    polysearch.WithExpectedVersions("1.16.2", "1.16.2"),
//	    polysearch.WithEmbedder(myEmbedder),
//	    polysearch.WithTranslator(myTranslator),
//	)
//	defer client.Close()
//
//	doc, _ := client.IngestFile(ctx, "handbook.pdf", polysearch.Source("hr"))
//	res, _ := client.Search(ctx, "Wie viele Urlaubstage habe ich?", polysearch.Limit(3))
//
// For tests and single-binary tools, WithEmbedded keeps the index in process.
package polysearch
