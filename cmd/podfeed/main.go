package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"podfeed/internal/app/podfeed"
	"podfeed/internal/app/podfeed/proc"
	"podfeed/internal/configs"
)

var opts struct {
	Conf  string `short:"c" long:"conf" env:"PODFEED_CONF" default:"config.yaml" description:"config file (yml)"`
	DB    string `short:"d" long:"db" env:"PODFEED_DB" default:"var/podfeed.bdb" description:"bolt db file"`
	Dir   string `short:"w" long:"dir" env:"PODFEED_DIR" default:"." description:"working directory with episodes/, processed/, published/, assets/"`
	Batch bool   `short:"b" long:"batch" env:"PODFEED_BATCH" description:"non-interactive mode, use defaults for episode metadata"`
}

func checkFileExists(filepath string) bool {
	if _, err := os.Stat(filepath); errors.Is(err, os.ErrNotExist) {
		return false
	}

	return true
}

func main() {
	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		p.WriteHelp(os.Stderr)
		os.Exit(2)
	}

	configFile := opts.Conf

	if !checkFileExists(configFile) {
		configFile = "configs/podfeed.yaml"

		if !checkFileExists(configFile) {
			log.Fatal("[ERROR] config file not found")
		}
	}

	conf, err := configs.Load(configFile)
	if err != nil {
		log.Fatalf("[ERROR] can't load config %s, %v", opts.Conf, err)
	}

	layout := proc.Layout{Root: opts.Dir}
	if err := layout.Ensure(); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	db, err := podfeed.NewBoltDB(opts.DB)
	if err != nil {
		log.Fatalf("[ERROR] can't create boltdb instance, %v", err)
	}

	s3client, err := podfeed.NewS3Client(
		conf.CloudStorage.EndPointURL,
		conf.CloudStorage.Secrets.Key,
		conf.CloudStorage.Secrets.Secret,
		conf.CloudStorage.Secure)
	if err != nil {
		log.Fatalf("[ERROR] can't create s3client instance, %v", err)
	}

	var resolver proc.Resolver = &proc.PromptResolver{}
	if opts.Batch {
		resolver = &proc.DefaultResolver{}
	}

	var cdn proc.Invalidator = &proc.NoopInvalidator{}
	if conf.CloudStorage.PurgeURL != "" {
		cdn = proc.NewCDNClient(conf.CloudStorage.PurgeURL)
	}

	files := &proc.Files{Layout: layout}
	procEntity := &proc.Processor{
		Files:   files,
		Storage: &proc.BoltDB{DB: db},
		S3Client: &proc.S3Store{
			Client:     s3client,
			Location:   conf.CloudStorage.Region,
			Bucket:     conf.CloudStorage.Bucket,
			CDNBaseURL: conf.CloudStorage.CDNBaseURL,
		},
		CDN: cdn,
		Normalizer: &proc.Normalizer{
			Bitrate:    conf.Audio.Bitrate,
			SampleRate: conf.Audio.SampleRate,
			Channels:   conf.Audio.Channels,
			Loudnorm:   conf.Audio.Normalize,
		},
		Collector: &proc.Collector{Resolver: resolver, Defaults: conf.Episode},
		Retry:     proc.DefaultRetry,
	}

	app, err := podfeed.NewApplication(conf, procEntity)
	if err != nil {
		log.Fatalf("[ERROR] can't create app, %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("[ERROR] run failed, %v", err)
	}
}
