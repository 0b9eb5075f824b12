package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for environments without system roots

	"github.com/spf13/cobra"

	pandoraadapter "github.com/BenChaimberg/pandora-to-spotify/internal/adapter/driven/pandora"
	spotifyadapter "github.com/BenChaimberg/pandora-to-spotify/internal/adapter/driven/spotify"
	sqliteadapter "github.com/BenChaimberg/pandora-to-spotify/internal/adapter/driven/sqlite"
	"github.com/BenChaimberg/pandora-to-spotify/internal/application"
	"github.com/BenChaimberg/pandora-to-spotify/internal/config"
)

var (
	configPath string
	verbose    bool

	stationID string
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "pandora-to-spotify",
	Short: "Migrate Pandora liked songs into Spotify playlists",
	Long: `pandora-to-spotify reads the liked (thumbed-up) songs from every station
on a Pandora account and recreates them as Spotify playlists, one playlist
per station. Already-imported songs are tracked in a local SQLite database,
so repeated runs only pick up new likes.

Start with "login" to authorize Spotify access, then run "sync".`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify Pandora credentials and authorize Spotify access",
	Long: `login checks the Pandora credentials from conf.ini and runs the Spotify
authorization flow in the browser. The resulting refresh token is stored
encrypted in the local database (set P2S_SECRET_KEY to enable storage).`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single sync pass",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync continuously on the configured interval",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List Pandora stations and their import progress",
	Args:  cobra.NoArgs,
	RunE:  runStations,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to conf.ini (default \"conf.ini\", or P2S_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	for _, cmd := range []*cobra.Command{syncCmd, watchCmd} {
		cmd.Flags().StringVar(&stationID, "station", "", "sync only the station with this Pandora ID")
	}
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log what would be imported without changing anything")

	rootCmd.AddCommand(loginCmd, syncCmd, watchCmd, stationsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// app bundles the config, database, and repositories every command needs.
type app struct {
	cfg      *config.Config
	db       *sqliteadapter.DB
	stations *sqliteadapter.StationRepo
	imports  *sqliteadapter.ImportRepo
	creds    *sqliteadapter.CredentialRepo
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("database ready", "path", cfg.DBPath)

	return &app{
		cfg:      cfg,
		db:       db,
		stations: sqliteadapter.NewStationRepo(db),
		imports:  sqliteadapter.NewImportRepo(db),
		creds:    sqliteadapter.NewCredentialRepo(db, cfg.SecretKey),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// pandoraClient builds and logs in a Pandora client, failing fast when
// conf.ini has no credentials.
func (a *app) pandoraClient(ctx context.Context) (*pandoraadapter.Client, error) {
	if !a.cfg.HasPandoraCredentials() {
		return nil, fmt.Errorf("pandora credentials missing: set username and password in the [pandora] section of conf.ini")
	}

	client := pandoraadapter.NewClient(a.cfg.PandoraUsername, a.cfg.PandoraPassword, pandoraadapter.Options{
		PageSize:        a.cfg.PageSize,
		StationPageSize: a.cfg.StationPageSize,
	})
	if err := client.Login(ctx); err != nil {
		return nil, fmt.Errorf("pandora login: %w", err)
	}
	slog.Debug("pandora session established")
	return client, nil
}

func (a *app) authenticator() *spotifyadapter.Authenticator {
	return spotifyadapter.NewAuthenticator(
		a.cfg.SpotifyClientID,
		a.cfg.SpotifyClientSecret,
		a.cfg.RedirectPort,
		a.cfg.PublicPlaylists,
		a.creds,
	)
}

// spotifyClient builds a Spotify client from the stored refresh token.
func (a *app) spotifyClient(ctx context.Context) (*spotifyadapter.Client, error) {
	httpClient, err := a.authenticator().Client(ctx)
	if err != nil {
		return nil, err
	}
	return spotifyadapter.NewClient(httpClient, a.cfg.PublicPlaylists), nil
}

func (a *app) syncService(ctx context.Context, dry bool) (*application.SyncService, error) {
	pandora, err := a.pandoraClient(ctx)
	if err != nil {
		return nil, err
	}
	spotify, err := a.spotifyClient(ctx)
	if err != nil {
		return nil, err
	}

	filter := stationID
	if filter == "" {
		filter = a.cfg.StationID
	}

	return application.NewSyncService(pandora, spotify, a.stations, a.imports, application.SyncOptions{
		StationFilter: filter,
		Interval:      a.cfg.Interval,
		DryRun:        dry,
	}), nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.HasPandoraCredentials() {
		if _, err := a.pandoraClient(ctx); err != nil {
			return err
		}
		fmt.Println("Pandora credentials OK.")
	} else {
		slog.Warn("no pandora credentials in conf.ini, skipping pandora check")
	}

	if err := a.authenticator().Login(ctx); err != nil {
		return fmt.Errorf("spotify authorization: %w", err)
	}
	fmt.Println("Spotify authorized.")
	return nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.syncService(ctx, dryRun)
	if err != nil {
		return err
	}

	report, err := svc.RunOnce(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Synced %d station(s) in %s: %d song(s) seen, %d imported, %d without a match, %d already imported.\n",
		report.Stations, report.Duration, report.Songs, report.Matched, report.NotFound, report.Skipped)
	if report.FailedStations > 0 {
		fmt.Printf("%d station(s) failed; see the log above.\n", report.FailedStations)
	}
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.syncService(ctx, false)
	if err != nil {
		return err
	}
	return svc.Watch(ctx)
}

func runStations(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	pandora, err := a.pandoraClient(ctx)
	if err != nil {
		return err
	}

	// The stations command only reads: live station list plus local ledger
	// counts, no Spotify client needed.
	svc := application.NewSyncService(pandora, nil, a.stations, a.imports, application.SyncOptions{})
	statuses, err := svc.StationStatuses(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATION\tID\tLIKED\tIMPORTED\tMISSING\tPLAYLIST")
	for _, st := range statuses {
		playlist := st.Station.SpotifyPlaylistID
		if playlist == "" {
			playlist = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			st.Station.Name, st.Station.PandoraID, st.Station.LikedSongCount,
			st.Imported, st.Missing, playlist)
	}
	return w.Flush()
}
