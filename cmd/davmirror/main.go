package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"

	config "github.com/ThomasObenaus/go-conf"
	"go.uber.org/zap"

	"github.com/kataglyphis/davmirror/internal/catalog"
	"github.com/kataglyphis/davmirror/internal/connector"
	"github.com/kataglyphis/davmirror/internal/logging"
	"github.com/kataglyphis/davmirror/internal/mirror"
)

type Config struct {
	Target struct {
		URL  string `cfg:"{'name': 'url', 'desc': 'webdav endpoint, may carry user:token@ userinfo'}"`
		Path string `cfg:"{'name': 'path', 'desc': 'remote folder to mirror'}"`
	} `cfg:"{'name': 'target'}"`

	Local struct {
		Path string `cfg:"{'name': 'path', 'desc': 'local destination folder'}"`
	} `cfg:"{'name': 'local'}"`

	Catalog struct {
		Driver string `cfg:"{'name': 'driver', 'desc': 'download catalog driver (file, postgres), empty disables the catalog', 'default': ''}"`
		Path   string `cfg:"{'name': 'path', 'desc': 'catalog file path for the file driver', 'default': 'davmirror-catalog.jsonl'}"`
		URL    string `cfg:"{'name': 'url', 'desc': 'database url for the postgres driver', 'default': ''}"`
	} `cfg:"{'name': 'catalog'}"`

	Log struct {
		File       string `cfg:"{'name': 'file', 'desc': 'log file path, empty disables the file sink', 'default': 'logs/davmirror.log'}"`
		Level      string `cfg:"{'name': 'level', 'desc': 'log level', 'default': 'info'}"`
		Console    bool   `cfg:"{'name': 'console', 'desc': 'log to stdout as well', 'default': true}"`
		FileSizeMB int    `cfg:"{'name': 'file-size-mb', 'desc': 'rotate the log file at this size', 'default': 500}"`
		FileCount  int    `cfg:"{'name': 'file-count', 'desc': 'rotated log files to keep', 'default': 3}"`
		KeepDays   int    `cfg:"{'name': 'keep-days', 'desc': 'days to keep rotated log files', 'default': 28}"`
	} `cfg:"{'name': 'log'}"`
}

func main() {
	cfg := Config{}

	cfgProvider, err := config.NewConfigProvider(
		&cfg,
		"DAVMIRROR",
		"DAVMIRROR",
	)
	if err != nil {
		fmt.Println("failed to build config provider:", err)
		os.Exit(-1)
	}

	err = cfgProvider.ReadConfig(os.Args)
	if err != nil {
		fmt.Println(cfgProvider.Usage())
		os.Exit(-1)
	}

	lg, err := logging.New(logging.Config{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		Console:    cfg.Log.Console,
		FileSizeMB: cfg.Log.FileSizeMB,
		FileCount:  cfg.Log.FileCount,
		KeepDays:   cfg.Log.KeepDays,
	})
	if err != nil {
		fmt.Println("failed to build logger:", err)
		os.Exit(-1)
	}
	defer lg.Sync()

	targetURL, err := url.Parse(cfg.Target.URL)
	if err != nil {
		lg.Fatal("failed to parse target url", zap.Error(err))
	}
	conCfg := connector.WebdavConnectorConfig{
		BaseURL:  targetURL.Scheme + "://" + targetURL.Host + targetURL.Path,
		Username: targetURL.User.Username(),
	}
	targetPassword, targetHasPassword := targetURL.User.Password()
	if targetHasPassword {
		conCfg.Password = targetPassword
	}
	con := connector.NewWebdavConnector(conCfg, lg)

	var cat catalog.Catalog
	switch catalog.Driver(cfg.Catalog.Driver) {
	case "":
	case catalog.DriverFile:
		fileCat, err := catalog.NewFileCatalog(cfg.Catalog.Path)
		if err != nil {
			lg.Fatal("failed to open catalog file", zap.Error(err))
		}
		defer fileCat.Close()
		cat = fileCat
	case catalog.DriverPostgres:
		db, err := sql.Open("postgres", cfg.Catalog.URL)
		if err != nil {
			lg.Fatal("failed to open db", zap.Error(err))
		}
		defer db.Close()

		err = db.Ping()
		if err != nil {
			lg.Fatal("failed to ping db", zap.Error(err))
		}
		cat = catalog.NewPostgresCatalog(db)
	default:
		lg.Fatal("unknown catalog driver", zap.String("driver", cfg.Catalog.Driver))
	}

	m := mirror.NewMirror(con, cat, lg)
	err = m.DownloadTree(context.Background(), cfg.Target.Path, cfg.Local.Path)
	if err != nil {
		lg.Fatal("failed to download tree", zap.Error(err))
	}
}
