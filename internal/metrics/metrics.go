package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PlayersJoined = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "multisweeper_players_joined_total",
		Help: "Total players assigned to a game",
	})
	GamesStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "multisweeper_games_started_total",
		Help: "Total games transitioned to active",
	})
	GamesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "multisweeper_games_completed_total",
		Help: "Total games that reached the over state",
	})
	MinesHit = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "multisweeper_mines_hit_total",
		Help: "Total mine cells revealed by turns",
	})
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "multisweeper_ws_connections",
		Help: "Currently open websocket connections",
	})
)

func init() {
	prometheus.MustRegister(PlayersJoined, GamesStarted, GamesCompleted, MinesHit, Connections)
}
