// Package nodesearch embeds the structured node search engine in a Go
// program without running the HTTP server.
//
// The client owns a graph store (in memory by default, or SQLite) and a
// full-text index (in memory by default, or RediSearch). Nodes written
// through the client land in both.
//
//	client, _ := nodesearch.New(ctx, nodesearch.WithSQLite("graph.db"))
//	defer client.Close()
//
//	_ = client.Put(ctx, nodesearch.Node{ID: "doc-1", Type: "Document", Name: "NYC report"}, "root")
//
//	nodes, _ := client.Search().
//	    Under("root").
//	    Where(nodesearch.Text("name", "nyc"), nodesearch.Flag("archived", true).Not()).
//	    Do(ctx)
//
// Textual criteria match words by prefix or whole value. Values wrapped in
// quotes or brackets are passed to the index as written.
package nodesearch
