package web

type HomeData struct {
	DefaultCapacity   int
	MinCapacity       int
	MaxCapacity       int
	MaxQuestionLength int
}

type GameData struct {
	Code                string
	Question            string
	Capacity            int
	ShareURL            string
	MaxNameLength       int
	MaxPredictionLength int
}
