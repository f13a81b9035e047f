// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: janela fixa por chave com bloqueio estendido opcional
//   - QuerySlots: semáforo de leituras simultâneas da API de estatísticas
//   - MemoryStatsStore / RedisStatsStore: contadores de decisões de admissão
package infra
