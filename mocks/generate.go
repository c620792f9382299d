package mocks

//go:generate mockgen -destination=./mock_exchange.go -package=mocks github.com/Adamcza88/ai-matic-bot-sub001/internal/exchange Client
