// Package analytics expõe os handlers HTTP do serviço: a superfície pública
// de ingestão (track e pixel) e a API de estatísticas protegida por token.
//
// A superfície de ingestão responde sempre 204 sem corpo, com exceção de falha
// interna de armazenamento; quem observa as respostas não distingue página
// aceita, página desconhecida ou corpo malformado.
package analytics
