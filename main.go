package main

import (
	"context"
	"log"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	inspectCmd  = kingpin.Command("inspect", "Decode a .osu file and print a summary.")
	inspectFile = inspectCmd.Arg("file", "Path to a .osu file.").Required().ExistingFile()
	inspectRate = inspectCmd.Flag("rate", "Playback rate applied to derived values.").Default("1.0").Short('r').Float64()

	indexCmd = kingpin.Command("index", "Decode every .osu under a directory into the chart index.")
	indexDir = indexCmd.Arg("directory", "Songs directory.").Required().ExistingDir()
	indexDB  = indexCmd.Flag("db", "Chart index database file.").Default("charts.db").String()

	listCmd = kingpin.Command("list", "Print the indexed charts.")
	listDB  = listCmd.Flag("db", "Chart index database file.").Default("charts.db").String()

	serveCmd  = kingpin.Command("serve", "Serve a songs directory as a beatmap provider.")
	serveDir  = serveCmd.Arg("directory", "Songs directory.").Required().ExistingDir()
	serveAddr = serveCmd.Flag("addr", "Listen address.").Default(":8080").String()

	fetchCmd    = kingpin.Command("fetch", "Fetch beatmap metadata from the osu! API.")
	fetchIDs    = fetchCmd.Arg("id", "Beatmap ids.").Required().Ints()
	fetchOut    = fetchCmd.Flag("out", "Directory for the stored JSON files.").Default("beatmaps").String()
	fetchID     = fetchCmd.Flag("client-id", "OAuth client id.").Envar("OSU_CLIENT_ID").Required().Int()
	fetchSecret = fetchCmd.Flag("client-secret", "OAuth client secret.").Envar("OSU_CLIENT_SECRET").Required().String()

	downloadCmd     = kingpin.Command("download", "Download beatmap sets and extract their charts.")
	downloadIDs     = downloadCmd.Arg("set-id", "Beatmap set ids.").Required().Ints()
	downloadDest    = downloadCmd.Flag("dest", "Directory for the extracted sets.").Default("sets").String()
	downloadDB      = downloadCmd.Flag("db", "Chart index database file for failure records.").Default("charts.db").String()
	downloadSession = downloadCmd.Flag("session", "osu! web session cookie.").Envar("OSU_SESSION").Required().String()

	previewCmd  = kingpin.Command("preview", "Play a chart's audio from its preview point.")
	previewDir  = previewCmd.Arg("directory", "Beatmap set directory.").Required().ExistingDir()
	previewRate = previewCmd.Flag("rate", "Playback rate.").Default("1.0").Short('r').Float64()
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	kingpin.Version("0.1.0")

	var err error
	switch kingpin.Parse() {
	case "inspect":
		err = runInspect(*inspectFile, *inspectRate)
	case "index":
		err = IndexSongs(*indexDir, *indexDB)
	case "list":
		err = runList(*listDB)
	case "serve":
		err = runServe(*serveDir, *serveAddr)
	case "fetch":
		err = runFetch(context.Background(), *fetchID, *fetchSecret, *fetchIDs, *fetchOut)
	case "download":
		err = runDownload(*downloadIDs, *downloadSession, *downloadDest, *downloadDB)
	case "preview":
		err = runPreview(*previewDir, *previewRate)
	}
	if err != nil {
		log.Fatalln(err)
	}
}
