// meta/meta.go
package meta

// GO_ROUTINES defines the number of games an evaluation plays at once.
const GO_ROUTINES = 8

// MAX_ITERATIONS bounds a training run.
const MAX_ITERATIONS = 1000

// MAX_TURNS bounds a single match. Zero means unbounded.
const MAX_TURNS = 0

// MAX_REPLAYS bounds how many drawn matches a session replays.
const MAX_REPLAYS = 10

// LEARN_ITERATIONS and LEARN_EPOCHS control how hard the AI learns from a lost match.
const LEARN_ITERATIONS = 25
const LEARN_EPOCHS = 10

// EVAL_GAMES defines the number of matches per evaluation.
const EVAL_GAMES = 100

// MODEL_PATH is where trained models are written by default.
const MODEL_PATH = "models/shotgun.model"

// HISTORY_DB is the default match history database.
const HISTORY_DB = "shotgun.db"

// RECORDS_DIR is the root of experiment CSV output.
const RECORDS_DIR = "experiments"
