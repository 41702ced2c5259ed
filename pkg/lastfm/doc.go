// Package lastfm provides a client library for the read-only parts of the
// Last.fm API 2.0.
//
// # Overview
//
// This package implements the chart and album lookups needed to build
// listening summaries: a user's weekly album chart, per-album metadata
// (track list, artwork descriptors) and artwork downloads. It provides a
// type-safe API with context support and structured errors.
//
// # Quick Start
//
//	import "github.com/jfmyers9/scrobblegrid/pkg/lastfm"
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey: "your-api-key",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Charts
//
//	chart, err := client.User().GetWeeklyAlbumChart(ctx, "rj", lastfm.ChartRange{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Albums and Artwork
//
//	info, err := client.Album().GetInfo(ctx, "Cher", "Believe")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, img := range info.Images {
//	    if img.Size == "mega" {
//	        data, err := client.Album().DownloadImage(ctx, img.URL)
//	        ...
//	    }
//	}
//
// # Error Handling
//
// API failures are returned as *Error values carrying the Last.fm error
// code:
//
//	_, err := client.Album().GetInfo(ctx, artist, album)
//	if errors.Is(err, lastfm.ErrNotFound) {
//	    // unknown album
//	}
//
// Non-2xx artwork responses are returned as *StatusError. Every call is a
// single request; Error.Temporary reports whether a caller-side retry could
// succeed.
//
// # Last.fm API Documentation
//
// https://www.last.fm/api
package lastfm
